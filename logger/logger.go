package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

const (
	maxLogSize    = 5 * 1024 * 1024 // 5MB
	maxLogBackups = 5
)

var (
	// Logger writes to stdout until InitLogger wires in the log file.
	Logger  = log.New(os.Stdout, "", log.Ldate|log.Ltime)
	logFile *os.File
)

// InitLogger opens the rotating log file under dir and wires the global
// logger to both the file and stdout.
func InitLogger(dir string) error {
	logDir := filepath.Join(dir, ".logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(logDir, "community-archiver.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	logFile = file
	Logger = log.New(io.MultiWriter(os.Stdout, file), "", log.Ldate|log.Ltime)

	go rotateLogFile(path)

	return nil
}

func rotateLogFile(path string) {
	for {
		time.Sleep(1 * time.Hour)

		info, err := os.Stat(path)
		if err != nil {
			Logger.Printf("[ERROR] Checking log file: %v", err)
			continue
		}

		if info.Size() < maxLogSize {
			continue
		}

		Logger.Printf("[INFO] Rotating log file")

		for i := maxLogBackups - 1; i > 0; i-- {
			oldFile := fmt.Sprintf("%s.%d", path, i)
			newFile := fmt.Sprintf("%s.%d", path, i+1)
			os.Rename(oldFile, newFile)
		}

		os.Rename(path, path+".1")

		logFile.Close()

		newFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			Logger.Printf("[ERROR] Creating new log file: %v", err)
			continue
		}

		logFile = newFile
		Logger.SetOutput(io.MultiWriter(os.Stdout, newFile))
	}
}
