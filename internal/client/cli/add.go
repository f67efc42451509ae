package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dkotlyar/snipstash/internal/client/service"
	"github.com/dkotlyar/snipstash/internal/models"
)

// Add creates a text snippet interactively: title, body, password and
// an optional hide step that encrypts the body before it leaves the
// machine-local flow.
func (a *App) Add(ctx context.Context) error {
	var in service.AddInput
	if err := a.withDialog(func() error {
		var err error
		if in, err = a.addCommon(ctx); err != nil {
			return err
		}
		content, err := GetMultiline(a.reader, "Enter text", a.out)
		if err != nil {
			return err
		}
		a.poller.NoteTyping()
		in.ContentType = models.ContentTypeText
		in.Content = content
		return nil
	}); err != nil {
		return a.reportErr(err)
	}

	return a.submit(ctx, in)
}

// AddFile creates an image or PDF snippet from a local file path.
func (a *App) AddFile(ctx context.Context) error {
	var in service.AddInput
	var path string
	if err := a.withDialog(func() error {
		var err error
		if in, err = a.addCommon(ctx); err != nil {
			return err
		}
		if path, err = GetSimpleText(a.reader, "Enter file path", a.out); err != nil {
			return err
		}
		a.poller.NoteTyping()
		return nil
	}); err != nil {
		return a.reportErr(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return a.reportErr(err)
	}

	fileType := mime.TypeByExtension(filepath.Ext(path))
	switch {
	case strings.HasPrefix(fileType, "image/"):
		in.ContentType = models.ContentTypeImage
	case fileType == "application/pdf":
		in.ContentType = models.ContentTypePDF
	default:
		return a.reportErr(fmt.Errorf("unsupported file type %q (images and PDFs only)", fileType))
	}

	in.FileName = filepath.Base(path)
	in.FileType = fileType
	in.Content = fmt.Sprintf("data:%s;base64,%s", fileType, base64.StdEncoding.EncodeToString(data))

	return a.submit(ctx, in)
}

func (a *App) addCommon(ctx context.Context) (service.AddInput, error) {
	var in service.AddInput

	title, err := GetSimpleText(a.reader, "Enter title", a.out)
	if err != nil {
		return in, err
	}
	a.poller.NoteTyping()
	password, err := GetPassword("Enter password (guards delete and hide)", a.out)
	if err != nil {
		return in, err
	}
	hide, err := GetSimpleText(a.reader, "Hide content behind the password? [y/N]", a.out)
	if err != nil {
		return in, err
	}
	a.poller.NoteTyping()

	in.Title = title
	in.Password = password
	in.Hide = strings.EqualFold(hide, "y") || strings.EqualFold(hide, "yes")
	return in, nil
}

func (a *App) submit(ctx context.Context, in service.AddInput) error {
	saved, err := a.service.Add(ctx, in)
	if err != nil {
		return a.reportErr(err)
	}
	fmt.Fprintf(a.out, "Saved snippet %d (%s)\n", saved.ID, saved.Title)
	return nil
}

func (a *App) reportErr(err error) error {
	fmt.Fprintf(a.out, "Error: %s\n", err.Error())
	return err
}
