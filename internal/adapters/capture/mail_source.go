package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/image-classifier/internal/allowlist"
	"github.com/mikey/image-classifier/internal/core"
	"go.uber.org/zap"
)

// MailSource accepts camera snapshots mailed over SMTP and classifies
// every image attachment
type MailSource struct {
	service         Classifier
	logger          *zap.Logger
	listenAddr      string
	allowed         *allowlist.Checker
	maxMessageBytes int64
	timeout         time.Duration

	server   *smtp.Server
	listener net.Listener
	wg       sync.WaitGroup
}

// NewMailSource creates a new SMTP capture source
func NewMailSource(
	service Classifier,
	logger *zap.Logger,
	listenAddr string,
	allowed *allowlist.Checker,
	maxMessageBytes int64,
	timeout time.Duration,
) *MailSource {
	return &MailSource{
		service:         service,
		logger:          logger,
		listenAddr:      listenAddr,
		allowed:         allowed,
		maxMessageBytes: maxMessageBytes,
		timeout:         timeout,
	}
}

// Start starts the SMTP listener
func (s *MailSource) Start() error {
	// Create a new SMTP server
	s.server = smtp.NewServer(&mailBackend{source: s})

	// Configure the server
	s.server.Addr = s.listenAddr
	s.server.Domain = "localhost"
	s.server.ReadTimeout = 30 * time.Second
	s.server.WriteTimeout = 30 * time.Second
	s.server.MaxMessageBytes = s.maxMessageBytes
	s.server.MaxRecipients = 50
	s.server.AllowInsecureAuth = true

	l, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listenAddr, err)
	}
	s.listener = l

	s.logger.Info("Mail capture source starting", zap.String("address", l.Addr().String()))

	// Start the server in a goroutine
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(l); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			s.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound listen address once started
func (s *MailSource) Addr() string {
	if s.listener == nil {
		return s.listenAddr
	}
	return s.listener.Addr().String()
}

// Stop stops the SMTP listener
func (s *MailSource) Stop() error {
	if s.server == nil {
		return nil
	}
	err := s.server.Close()
	s.wg.Wait()
	if errors.Is(err, smtp.ErrServerClosed) {
		return nil
	}
	return err
}

// ProcessImage classifies an image file, as other sources do
func (s *MailSource) ProcessImage(ctx context.Context, path string) (*core.Classification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return s.service.ClassifyImage(ctx, data)
}

// ProcessMessage classifies every image attachment of a raw message
func (s *MailSource) ProcessMessage(ctx context.Context, from string, raw []byte) ([]*core.Classification, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	images, err := extractImages(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract attachments: %w", err)
	}
	if len(images) == 0 {
		return nil, errNoImages
	}

	var results []*core.Classification
	for _, img := range images {
		result, err := s.service.ClassifyImage(ctx, img.Data)
		if err != nil {
			s.logger.Error("Failed to classify mailed image",
				zap.String("from", from),
				zap.String("filename", img.Filename),
				zap.Error(err))
			continue
		}

		s.logger.Info("Classified mailed image",
			zap.String("from", from),
			zap.String("filename", img.Filename),
			zap.String("content_type", img.ContentType),
			zap.String("best_label", result.Record.BestLabel),
			zap.Bool("accepted", result.Accepted))
		results = append(results, result)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %d attached", errNoneClassified, len(images))
	}
	return results, nil
}

var (
	errNoImages       = errors.New("message has no image attachment")
	errNoneClassified = errors.New("no attached image could be classified")
)

// mailBackend implements the go-smtp Backend interface
type mailBackend struct {
	source *MailSource
}

// NewSession creates a new SMTP session
func (b *mailBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &mailSession{source: b.source}, nil
}

// mailSession implements the go-smtp Session interface
type mailSession struct {
	source *MailSource
	sender string
}

// Reset resets the session state
func (s *mailSession) Reset() {
	s.sender = ""
}

// Logout ends the session
func (s *mailSession) Logout() error {
	return nil
}

// Mail checks the sender against the allowlist
func (s *mailSession) Mail(from string, _ *smtp.MailOptions) error {
	if !s.source.allowed.Allows(from) {
		s.source.logger.Warn("Rejecting mail from sender outside allowlist", zap.String("from", from))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "Sender not allowed",
		}
	}
	s.sender = from
	return nil
}

// Rcpt accepts any recipient
func (s *mailSession) Rcpt(_ string, _ *smtp.RcptOptions) error {
	return nil
}

// Data classifies the message attachments
func (s *mailSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.source.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.source.timeout)
	defer cancel()

	if _, err := s.source.ProcessMessage(ctx, s.sender, raw); err != nil {
		s.source.logger.Warn("Rejecting message", zap.String("from", s.sender), zap.Error(err))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      err.Error(),
		}
	}
	return nil
}
