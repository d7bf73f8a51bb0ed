package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// GlobalExists reports whether the global config file is present on disk.
func GlobalExists() bool {
	p, err := GlobalPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// RunSetup asks for the settings a first run needs, reading answers from r
// and writing prompts to w. Values in existing are offered as defaults; an
// empty answer keeps them.
func RunSetup(r io.Reader, w io.Writer, existing Config) (Config, error) {
	in := bufio.NewReader(r)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(w, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(w, "%s: ", prompt)
		}
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askBool := func(prompt string, defaultVal bool) (bool, error) {
		def := "n"
		if defaultVal {
			def = "y"
		}
		ans, err := ask(prompt+" (y/n)", def)
		if err != nil {
			return false, err
		}
		ans = strings.ToLower(ans)
		return ans == "y" || ans == "yes", nil
	}

	cfg := existing
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  idlesnap setup")
	fmt.Fprintln(w)

	var err error
	cfg.StatePath, err = ask("  Game state dump written by the bridge", cfg.StatePath)
	if err != nil {
		return Config{}, err
	}

	format, err := ask("  Default export format (markdown/json)", cfg.DefaultFormat)
	if err != nil {
		return Config{}, err
	}
	if format == "json" {
		cfg.DefaultFormat = "json"
	} else {
		cfg.DefaultFormat = "markdown"
	}

	cfg.OutputDir, err = ask("  Export output directory", cfg.OutputDir)
	if err != nil {
		return Config{}, err
	}

	backend, err := ask("  Storage backend (file/sqlite)", cfg.Storage.Backend)
	if err != nil {
		return Config{}, err
	}
	if backend == "sqlite" {
		cfg.Storage.Backend = "sqlite"
	} else {
		cfg.Storage.Backend = "file"
	}

	cfg.Compress, err = askBool("  Compress stored exports", cfg.Compress)
	if err != nil {
		return Config{}, err
	}

	fmt.Fprintln(w)
	return cfg, nil
}

// SaveSetup writes the setup answers of cfg into the config file at path,
// keeping any other keys the file already holds.
func SaveSetup(path string, cfg Config) error {
	v := viper.New()
	v.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return &ParseError{Path: path, Err: err}
		}
	}
	v.Set("statePath", cfg.StatePath)
	v.Set("defaultFormat", cfg.DefaultFormat)
	v.Set("outputDir", cfg.OutputDir)
	v.Set("storage.backend", cfg.Storage.Backend)
	v.Set("compress", cfg.Compress)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
