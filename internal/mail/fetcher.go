// Package mail downloads delivery-note PDF attachments from an IMAP
// mailbox into the local inbox directory.
package mail

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	gomail "github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/neo2475/odoo-importer/internal/config"
	"github.com/neo2475/odoo-importer/internal/port"
)

// Fetcher retrieves PDF attachments over IMAP.
type Fetcher struct {
	cfg config.MailConfig
	log *zap.Logger
}

// NewFetcher returns a Fetcher for the configured mailbox.
func NewFetcher(cfg config.MailConfig, log *zap.Logger) *Fetcher {
	return &Fetcher{cfg: cfg, log: log}
}

var _ port.MailFetcher = (*Fetcher)(nil)

// FetchPDFs downloads the PDF attachments of every matching message in the
// configured labels into destDir. Messages are marked seen only after at
// least one PDF was saved from them.
func (f *Fetcher) FetchPDFs(ctx context.Context, destDir string) ([]port.FetchedFile, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("mail: create inbox dir: %w", err)
	}

	c, err := client.DialTLS(serverAddr(f.cfg.Host), nil)
	if err != nil {
		return nil, fmt.Errorf("mail: dial %s: %w", f.cfg.Host, err)
	}
	defer c.Logout()

	if err := c.Login(f.cfg.User, f.cfg.Password); err != nil {
		return nil, fmt.Errorf("mail: login as %s: %w", f.cfg.User, err)
	}
	f.log.Info("imap login ok", zap.String("host", f.cfg.Host), zap.String("user", f.cfg.User))

	labels := f.cfg.Labels
	if len(labels) == 0 {
		labels = []string{"INBOX"}
	}

	var fetched []port.FetchedFile
	for _, label := range labels {
		if err := ctx.Err(); err != nil {
			return fetched, err
		}
		files, err := f.fetchLabel(ctx, c, label, destDir)
		if err != nil {
			// One bad label should not abort the rest.
			f.log.Error("label fetch failed", zap.String("label", label), zap.Error(err))
			continue
		}
		fetched = append(fetched, files...)
	}

	f.log.Info("mail fetch complete",
		zap.Int("labels", len(labels)), zap.Int("pdfs", len(fetched)))
	return fetched, nil
}

func (f *Fetcher) fetchLabel(ctx context.Context, c *client.Client, label, destDir string) ([]port.FetchedFile, error) {
	mailbox, err := resolveMailbox(c, label)
	if err != nil {
		return nil, err
	}
	if _, err := c.Select(mailbox, false); err != nil {
		return nil, fmt.Errorf("select %q: %w", mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	if f.cfg.UnseenOnly {
		criteria.WithoutFlags = []string{imap.SeenFlag}
	}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", mailbox, err)
	}
	f.log.Info("mailbox searched", zap.String("mailbox", mailbox), zap.Int("messages", len(uids)))
	if len(uids) == 0 {
		return nil, nil
	}

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchEnvelope, imap.FetchUid}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, messages)
	}()

	var fetched []port.FetchedFile
	var seen []uint32
	for msg := range messages {
		if err := ctx.Err(); err != nil {
			// Drain the channel so the fetch goroutine can finish.
			for range messages {
			}
			<-done
			return fetched, err
		}
		files := f.savePDFs(msg, section, destDir)
		if len(files) > 0 {
			fetched = append(fetched, files...)
			seen = append(seen, msg.Uid)
		}
	}
	if err := <-done; err != nil {
		return fetched, fmt.Errorf("fetch %q: %w", mailbox, err)
	}

	if f.cfg.MarkSeen && len(seen) > 0 {
		set := new(imap.SeqSet)
		set.AddNum(seen...)
		op := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := c.UidStore(set, op, []interface{}{imap.SeenFlag}, nil); err != nil {
			f.log.Warn("could not mark messages seen", zap.Error(err))
		}
	}
	return fetched, nil
}

// savePDFs walks one message's MIME parts and writes each PDF attachment.
func (f *Fetcher) savePDFs(msg *imap.Message, section *imap.BodySectionName, destDir string) []port.FetchedFile {
	body := msg.GetBody(section)
	if body == nil {
		return nil
	}
	mr, err := gomail.CreateReader(body)
	if err != nil {
		f.log.Debug("unreadable message body", zap.Error(err))
		return nil
	}

	from, subject := envelopeInfo(msg)
	var files []port.FetchedFile
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			f.log.Debug("part read error", zap.Error(err))
			break
		}

		var filename, contentType string
		switch h := p.Header.(type) {
		case *gomail.AttachmentHeader:
			filename, _ = h.Filename()
			contentType, _, _ = h.ContentType()
		case *gomail.InlineHeader:
			var params map[string]string
			contentType, params, _ = h.ContentType()
			filename = params["name"]
			if filename == "" {
				if _, dp, err := h.ContentDisposition(); err == nil {
					filename = dp["filename"]
				}
			}
		default:
			continue
		}
		if !IsPDFPart(contentType, filename) {
			continue
		}

		if filename == "" {
			filename = fallbackName
		}
		filename = EnsurePDFExt(filename, contentType)
		path := UniquePath(destDir, filename)
		out, err := os.Create(path)
		if err != nil {
			f.log.Error("cannot create attachment file", zap.String("path", path), zap.Error(err))
			continue
		}
		if _, err := io.Copy(out, p.Body); err != nil {
			out.Close()
			os.Remove(path)
			f.log.Error("attachment write failed", zap.String("path", path), zap.Error(err))
			continue
		}
		out.Close()

		f.log.Info("pdf saved", zap.String("path", path))
		files = append(files, port.FetchedFile{Path: path, From: from, Subject: subject})
	}
	return files
}

// resolveMailbox matches the label against the server's folder list,
// case-insensitive and by substring, the way Gmail labels usually need.
func resolveMailbox(c *client.Client, label string) (string, error) {
	boxes := make(chan *imap.MailboxInfo, 20)
	done := make(chan error, 1)
	go func() {
		done <- c.List("", "*", boxes)
	}()

	chosen := ""
	exists := false
	for box := range boxes {
		if box.Name == label {
			exists = true
		}
		if chosen == "" && strings.Contains(strings.ToLower(box.Name), strings.ToLower(label)) {
			chosen = box.Name
		}
	}
	if err := <-done; err != nil {
		return "", fmt.Errorf("list mailboxes: %w", err)
	}
	if chosen != "" {
		return chosen, nil
	}
	if exists {
		return label, nil
	}
	return "", fmt.Errorf("mailbox not found: %q", label)
}

func envelopeInfo(msg *imap.Message) (from, subject string) {
	if msg.Envelope == nil {
		return "", ""
	}
	if len(msg.Envelope.From) > 0 {
		from = msg.Envelope.From[0].Address()
	}
	return from, msg.Envelope.Subject
}

func serverAddr(host string) string {
	if strings.Contains(host, ":") {
		return host
	}
	return host + ":993"
}
