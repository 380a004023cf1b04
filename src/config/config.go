package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config is the application configuration loaded from config.json.
type Config struct {
	DataDir string `json:"data_dir"` // directory watched for refreshed source files

	Sources struct {
		Order    Source `json:"order"`
		Customer Source `json:"customer"`
		Stock    Source `json:"stock"`
		Product  Source `json:"product"`
	} `json:"sources"`

	Server struct {
		Addr string `json:"addr"` // listen address, e.g. ":8080"
	} `json:"server"`

	RefreshInterval Duration `json:"refresh_interval"` // 0 disables scheduled reloads

	LogName    string `json:"log_name"`
	LogMaxSize string `json:"log_max_size"` // e.g. "10 * 1024 * 1024"

	Email struct {
		Server        string   `json:"server"`         // IMAP server address with port
		Username      string   `json:"username"`       // mailbox account
		Password      string   `json:"password"`       // password or app token
		TargetSubject string   `json:"target_subject"` // subject keyword of stock workbook mails
		CheckInterval Duration `json:"check_interval"` // how often to poll the mailbox
	} `json:"email"`

	SendEmail struct {
		Server   string   `json:"server"` // SMTP server address
		Username string   `json:"username"`
		Password string   `json:"password"`
		To       []string `json:"to"`
		Subject  string   `json:"subject"`
	} `json:"send_email"`

	Push struct {
		WebhookURL string `json:"webhook_url"` // empty disables pushing
		Schedule   string `json:"schedule"`    // cron spec, e.g. "@daily"
	} `json:"push"`
}

// Source locates one tabular dataset.
type Source struct {
	Path   string `json:"path"`   // file path or http(s) URL
	Format string `json:"format"` // "csv", "xlsx" or "sqlite"
	Sheet  string `json:"sheet"`  // xlsx sheet name, optional
	Table  string `json:"table"`  // sqlite table name
}

// ViewConfig is the deployment-specific view configuration loaded from
// viewconfig.json: which aggregate views are enabled, their Top-N sizes and
// any logical-to-physical column alias overrides.
type ViewConfig struct {
	Views   map[string]bool   `json:"views"`
	TopN    map[string]int    `json:"topn"`
	Columns map[string]string `json:"columns"`
}

var (
	once               sync.Once
	instance           *Config
	viewConfigInstance *ViewConfig
	mu                 sync.RWMutex
)

// LoadConfig loads both configuration files exactly once per process.
func LoadConfig(jsonFolder, jsonFile, viewJsonFile string) (*Config, *ViewConfig, error) {
	var err error
	once.Do(func() {
		instance, viewConfigInstance, err = loadConfigs(jsonFolder, jsonFile, viewJsonFile)
	})
	return instance, viewConfigInstance, err
}

func loadConfigs(jsonFolder, jsonFile, viewJsonFile string) (*Config, *ViewConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	viewConfigFile := filepath.Join(jsonFolder, viewJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	viewConfigData, err := readFile(viewConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read view config file: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	vcfgChan := make(chan *ViewConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseViewConfig(viewConfigData, vcfgChan, errChan)

	cfg, vcfg, err := waitForResults(cfgChan, vcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	return cfg, vcfg, nil
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		errChan <- fmt.Errorf("failed to parse Config: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseViewConfig(data []byte, resultChan chan<- *ViewConfig, errChan chan<- error) {
	var vcfg ViewConfig
	if err := json.Unmarshal(data, &vcfg); err != nil {
		errChan <- fmt.Errorf("failed to parse ViewConfig: %w", err)
		return
	}
	resultChan <- &vcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	vcfgChan <-chan *ViewConfig,
	errChan <-chan error,
) (*Config, *ViewConfig, error) {
	var (
		cfg  *Config
		vcfg *ViewConfig
		errs []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case v := <-vcfgChan:
			vcfg = v
		case err := <-errChan:
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, nil, combineErrors(errs)
	}

	if cfg == nil || vcfg == nil {
		return nil, nil, fmt.Errorf("configuration only partially loaded")
	}

	return cfg, vcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	msg := "configuration loading hit multiple errors:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

// Duration wraps time.Duration so it can be written as "5m" in JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// ViewEnabled reports whether a named aggregate view is enabled. Views not
// mentioned in the file default to enabled, so an empty viewconfig.json runs
// the full dashboard.
func (vc *ViewConfig) ViewEnabled(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	enabled, ok := vc.Views[name]
	if !ok {
		return true
	}
	return enabled
}

// ViewEnabledDefault is ViewEnabled with an explicit default for views that
// are opt-in rather than opt-out.
func (vc *ViewConfig) ViewEnabledDefault(name string, def bool) bool {
	mu.RLock()
	defer mu.RUnlock()
	if enabled, ok := vc.Views[name]; ok {
		return enabled
	}
	return def
}

// GetTopN returns the configured ranking size for a view, or def when unset.
func (vc *ViewConfig) GetTopN(view string, def int) int {
	mu.RLock()
	defer mu.RUnlock()
	if n, ok := vc.TopN[view]; ok && n > 0 {
		return n
	}
	return def
}

// GetColumn resolves a logical column name against the alias overrides.
func (vc *ViewConfig) GetColumn(logical string) string {
	mu.RLock()
	defer mu.RUnlock()
	if phys, ok := vc.Columns[logical]; ok && phys != "" {
		return phys
	}
	return logical
}

// SetColumn installs a column alias at runtime.
func (vc *ViewConfig) SetColumn(logical, physical string) {
	mu.Lock()
	defer mu.Unlock()
	if vc.Columns == nil {
		vc.Columns = make(map[string]string)
	}
	vc.Columns[logical] = physical
}
