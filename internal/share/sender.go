package share

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TheApexWu/suzerain/internal/filelock"
	"github.com/TheApexWu/suzerain/internal/logger"
)

// maxErrorBody bounds how much of a failed response is kept
const maxErrorBody = 512

// HTTPError is returned for non-2xx responses
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("share endpoint returned %d", e.StatusCode)
	}
	return fmt.Sprintf("share endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Sender posts payloads to the share endpoint and keeps failed ones
// pending on disk
type Sender struct {
	endpoint   string
	token      string
	userAgent  string
	pendingDir string
	client     *http.Client
	guard      *Guard
	log        logger.Logger
}

// SenderConfig configures a Sender
type SenderConfig struct {
	Endpoint   string
	Token      string
	Version    string
	PendingDir string
	Timeout    time.Duration
	Client     *http.Client
	Logger     logger.Logger
}

// NewSender builds a sender. A nil Client gets one with cfg.Timeout.
func NewSender(cfg SenderConfig) (*Sender, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("share endpoint is not configured")
	}
	guard, err := NewGuard()
	if err != nil {
		return nil, err
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop
	}
	return &Sender{
		endpoint:   cfg.Endpoint,
		token:      cfg.Token,
		userAgent:  "suzerain/" + cfg.Version,
		pendingDir: cfg.PendingDir,
		client:     client,
		guard:      guard,
		log:        log,
	}, nil
}

// Send validates and posts the payload. When the request fails after
// validation, the payload is written to the pending directory and the
// send error is returned.
func (s *Sender) Send(ctx context.Context, p *Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := s.guard.Check(data); err != nil {
		return err
	}

	sendErr := s.post(ctx, data)
	if sendErr == nil {
		return nil
	}
	if s.pendingDir == "" {
		return sendErr
	}
	path, err := SavePending(s.pendingDir, data)
	if err != nil {
		return errors.Join(sendErr, err)
	}
	s.log.LogWarn(fmt.Sprintf("share failed, payload kept at %s", path))
	return sendErr
}

func (s *Sender) post(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build share request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send share request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	io.Copy(io.Discard, resp.Body)
	s.log.LogDebug(fmt.Sprintf("shared profile (%d)", resp.StatusCode))
	return nil
}

// SavePending writes a serialised payload to dir atomically and returns its path
func SavePending(dir string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create pending directory: %w", err)
	}
	name := fmt.Sprintf("%d-%s.json", time.Now().UnixNano(), uuid.NewString())
	path := filepath.Join(dir, name)
	if err := filelock.AtomicWrite(path, data, 0600); err != nil {
		return "", fmt.Errorf("save pending payload: %w", err)
	}
	return path, nil
}

// Pending lists pending payload files, oldest first
func Pending(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pending directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Flush retries every pending payload, removing those that are sent.
// Payloads that no longer pass the schema are discarded. It stops at the
// first send failure and returns the number sent.
func (s *Sender) Flush(ctx context.Context) (int, error) {
	if s.pendingDir == "" {
		return 0, nil
	}
	paths, err := Pending(s.pendingDir)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return sent, fmt.Errorf("read pending payload: %w", err)
		}
		if err := s.guard.Check(data); err != nil {
			s.log.LogWarn(fmt.Sprintf("discarding pending payload %s: %v", filepath.Base(path), err))
			os.Remove(path)
			continue
		}
		if err := s.post(ctx, data); err != nil {
			return sent, err
		}
		if err := os.Remove(path); err != nil {
			return sent, fmt.Errorf("remove sent payload: %w", err)
		}
		sent++
	}
	return sent, nil
}
