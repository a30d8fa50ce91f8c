package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// ConfigService remembers the user's last picker choices between sessions
type ConfigService struct {
	mu         sync.Mutex
	configPath string
	logger     *log.Logger
	config     *Config
}

// Config represents the application configuration
type Config struct {
	DestinationFolder string `json:"destinationFolder"`
	Mode              string `json:"mode"`
	Codec             string `json:"codec"`
}

// NewConfigService creates a ConfigService backed by ~/.cmprssr/config.json
func NewConfigService(logger *log.Logger) (*ConfigService, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewConfigServiceAt(filepath.Join(homeDir, ".cmprssr"), logger)
}

// NewConfigServiceAt creates a ConfigService storing config.json in configDir
func NewConfigServiceAt(configDir string, logger *log.Logger) (*ConfigService, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	service := &ConfigService{
		configPath: filepath.Join(configDir, "config.json"),
		logger:     logger,
		config:     &Config{Mode: "compress"},
	}

	// Load existing config if it exists
	if err := service.Load(); err != nil {
		logger.Printf("[ConfigService] Failed to load config: %v", err)
		// Continue with default config
	}

	return service, nil
}

// Load loads the configuration from disk
func (s *ConfigService) Load() error {
	s.logger.Printf("[ConfigService] Load: Loading config from %s", s.configPath)

	data, err := os.ReadFile(s.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Printf("[ConfigService] Load: Config file does not exist, using defaults")
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	s.mu.Lock()
	s.config = &config
	s.mu.Unlock()
	s.logger.Printf("[ConfigService] Load: Config loaded: dest=%s mode=%s codec=%s", config.DestinationFolder, config.Mode, config.Codec)
	return nil
}

// save writes the configuration; callers hold s.mu
func (s *ConfigService) save() error {
	data, err := json.MarshalIndent(s.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(s.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	s.logger.Printf("[ConfigService] Save: Config saved to %s", s.configPath)
	return nil
}

// GetConfig returns the current configuration
func (s *ConfigService) GetConfig() Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil {
		return Config{}
	}
	return *s.config
}

// SetDestinationFolder sets the destination folder and saves the config
func (s *ConfigService) SetDestinationFolder(path string) error {
	s.logger.Printf("[ConfigService] SetDestinationFolder: path=%s", path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil {
		s.config = &Config{}
	}
	s.config.DestinationFolder = path
	return s.save()
}

// SetPreferences records the last mode and codec and saves the config
func (s *ConfigService) SetPreferences(mode, codecName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil {
		s.config = &Config{}
	}
	if s.config.Mode == mode && s.config.Codec == codecName {
		return nil
	}
	s.config.Mode = mode
	s.config.Codec = codecName
	return s.save()
}
