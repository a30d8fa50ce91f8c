package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
)

type SystemService struct {
	ctx    context.Context
	logger *log.Logger
}

func NewSystemService(ctx context.Context, logger *log.Logger) *SystemService {
	return &SystemService{
		ctx:    ctx,
		logger: logger,
	}
}

func (s *SystemService) SetContext(ctx context.Context) {
	s.ctx = ctx
}

// OpenPath reveals path in the platform file manager. For a file its
// containing folder is opened.
func (s *SystemService) OpenPath(path string) error {
	s.logger.Printf("[SystemService] OpenPath: %s", path)

	target, err := revealTarget(path)
	if err != nil {
		return err
	}

	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "windows":
		cmd = exec.Command("explorer", target)
	case "darwin":
		cmd = exec.Command("open", target)
	default: // linux and others
		cmd = exec.Command("xdg-open", target)
	}

	return cmd.Start()
}

func revealTarget(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot open %s: %w", path, err)
	}
	if info.IsDir() {
		return path, nil
	}
	return filepath.Dir(path), nil
}
