package port

import "context"

// FetchedFile describes a PDF attachment saved to the local filesystem.
type FetchedFile struct {
	Path    string
	From    string
	Subject string
}

// MailFetcher abstracts retrieval of delivery-note PDFs from a mailbox.
type MailFetcher interface {
	FetchPDFs(ctx context.Context, destDir string) ([]FetchedFile, error)
}
