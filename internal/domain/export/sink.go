package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sitehrm/internal/domain/payroll"
	cryptoutil "sitehrm/internal/platform/crypto"
)

// FileSink writes the workbook and one register PDF per site of a bulk run under
// <Dir>/<tenant>/<month>/.
type FileSink struct {
	Dir       string
	Directory Directory
	Crypto    *cryptoutil.Service
	Now       func() time.Time
}

func NewFileSink(dir string, directory Directory, crypto *cryptoutil.Service) *FileSink {
	return &FileSink{Dir: dir, Directory: directory, Crypto: crypto, Now: time.Now}
}

func (s *FileSink) Export(ctx context.Context, tenantID, month string, payslips []payroll.Payslip) ([]string, error) {
	lines, err := BuildLines(ctx, s.Directory, tenantID, payslips)
	if err != nil {
		return nil, fmt.Errorf("load export metadata: %w", err)
	}
	meta := Meta{Month: month, GeneratedAt: s.now()}

	dir := filepath.Join(s.Dir, tenantID, month)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	var paths []string
	wb, err := Workbook(lines, meta)
	if err != nil {
		return nil, fmt.Errorf("build workbook: %w", err)
	}
	buf, err := wb.WriteToBuffer()
	_ = wb.Close()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	path, err := s.write(filepath.Join(dir, fmt.Sprintf("payroll-%s.xlsx", month)), buf.Bytes())
	if err != nil {
		return paths, err
	}
	paths = append(paths, path)

	order, groups := GroupBySite(lines)
	for _, label := range order {
		var pdf bytes.Buffer
		if err := SitePDF(&pdf, label, groups[label], meta); err != nil {
			return paths, fmt.Errorf("render register %s: %w", label, err)
		}
		path, err := s.write(filepath.Join(dir, fmt.Sprintf("register-%s-%s.pdf", fileSafe(label), month)), pdf.Bytes())
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (s *FileSink) write(path string, data []byte) (string, error) {
	if s.Crypto != nil {
		return s.Crypto.WriteFile(path, data)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func (s *FileSink) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func fileSafe(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, label)
}
