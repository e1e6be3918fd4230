package allowlist

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Checker decides which sender addresses may submit images.
// An empty checker allows everyone.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a checker for the given sender domains
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	// Normalize domains (lowercase, no leading @ or dot)
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.Trim(strings.ToLower(strings.TrimSpace(domain)), "@.")
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized sender allowlist", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// Allows reports whether the sender's domain, or a parent of it, is listed
func (c *Checker) Allows(from string) bool {
	if len(c.domains) == 0 {
		return true
	}

	domain, ok := senderDomain(from)
	if !ok {
		return false
	}

	for _, allowed := range c.domains {
		if domain == allowed || strings.HasSuffix(domain, "."+allowed) {
			return true
		}
	}

	if c.logger != nil {
		c.logger.Debug("Sender domain not allowed",
			zap.String("domain", domain),
			zap.String("email", from))
	}
	return false
}

// senderDomain extracts the lowercased domain of an address or "Name <addr>" form
func senderDomain(from string) (string, bool) {
	addr := strings.TrimSpace(from)
	if parsed, err := mail.ParseAddress(addr); err == nil {
		addr = parsed.Address
	}

	at := strings.LastIndex(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return "", false
	}
	return strings.ToLower(addr[at+1:]), true
}
