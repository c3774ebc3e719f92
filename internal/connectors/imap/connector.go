package imap

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"

	"megatex/internal"
	"megatex/internal/config"
	"megatex/internal/connectors"
)

// Connector saves quote emails as drafts in an IMAP mailbox so they can
// be reviewed and sent from a regular mail client.
type Connector struct {
	host     string
	port     int
	secure   bool
	user     string
	password string
	mailbox  string
}

func NewConnector(cfg config.Config) (*Connector, error) {
	if err := cfg.Require("IMAP_HOST", cfg.IMAPHost); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_USER", cfg.IMAPUser); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_PASSWORD", cfg.IMAPPassword); err != nil {
		return nil, err
	}

	mailbox := cfg.IMAPDraftsMailbox
	if mailbox == "" {
		mailbox = "Drafts"
	}
	return &Connector{
		host:     cfg.IMAPHost,
		port:     cfg.IMAPPort,
		secure:   cfg.IMAPSecure,
		user:     cfg.IMAPUser,
		password: cfg.IMAPPassword,
		mailbox:  mailbox,
	}, nil
}

func (c *Connector) Provider() string { return "imap" }

func (c *Connector) Send(ctx context.Context, mail internal.OutgoingMail) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	var client *imapclient.Client
	var err error
	if c.secure {
		client, err = imapclient.DialTLS(addr, &tls.Config{ServerName: c.host})
	} else {
		client, err = imapclient.Dial(addr)
	}
	if err != nil {
		return "", err
	}
	defer client.Logout()

	if err := client.Login(c.user, c.password); err != nil {
		return "", err
	}

	flags := []string{imap.DraftFlag, imap.SeenFlag}
	if err := client.Append(c.mailbox, flags, time.Now(), bytes.NewBuffer(mail.Raw)); err != nil {
		return "", fmt.Errorf("append to %s: %w", c.mailbox, err)
	}
	return connectors.StatusDrafted, nil
}
