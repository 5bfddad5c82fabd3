package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"

	"anoa.com/unitech/pkg/mailer"
)

// Mailer records sent emails.
type Mailer struct {
	mu   sync.Mutex
	Sent []mailer.Email
}

func (m *Mailer) Send(email mailer.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, email)
	return nil
}

func (m *Mailer) Last() (mailer.Email, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return mailer.Email{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

// ImageStorage keeps uploads in memory and hands out fake CDN URLs.
type ImageStorage struct {
	mu      sync.Mutex
	Files   map[string][]byte
	Deleted []string
}

func (s *ImageStorage) UploadImage(_ context.Context, r io.Reader, folder, fileName string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Files == nil {
		s.Files = make(map[string][]byte)
	}
	url := fmt.Sprintf("https://res.cloudinary.com/test/image/upload/v1/%s/%s", folder, fileName)
	s.Files[url] = data
	return url, nil
}

func (s *ImageStorage) DeleteImage(_ context.Context, fileURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Files, fileURL)
	s.Deleted = append(s.Deleted, fileURL)
	return nil
}
