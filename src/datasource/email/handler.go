// handler.go
package email

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// WorkbookHandler drops xlsx attachments of matching mails into the data
// directory, where the file watcher picks them up and triggers a reload.
type WorkbookHandler struct {
	dataDir       string
	processedUIDs map[uint32]bool
	mu            sync.RWMutex
}

func NewWorkbookHandler(dataDir string) *WorkbookHandler {
	return &WorkbookHandler{
		dataDir:       dataDir,
		processedUIDs: make(map[uint32]bool),
	}
}

func (h *WorkbookHandler) isProcessed(uid uint32) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.processedUIDs[uid]
}

func (h *WorkbookHandler) markProcessed(uid uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.processedUIDs[uid] = true
}

// Handle saves every xlsx attachment of the message and returns the saved
// paths. A message already handled in this process is skipped.
func (h *WorkbookHandler) Handle(msg *Message) ([]string, error) {
	if msg == nil || h.isProcessed(msg.UID) {
		return nil, nil
	}

	if err := os.MkdirAll(h.dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	var saved []string
	for _, attachment := range msg.Attachments {
		if filepath.Ext(attachment.Filename) != ".xlsx" {
			continue
		}

		filePath := filepath.Join(h.dataDir, filepath.Base(attachment.Filename))
		if err := os.WriteFile(filePath, attachment.Content, 0644); err != nil {
			return saved, fmt.Errorf("failed to save attachment: %w", err)
		}
		saved = append(saved, filePath)
	}

	if len(saved) > 0 {
		h.markProcessed(msg.UID)
	}
	return saved, nil
}
