package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/filemanager/internal/domain/session"
	"github.com/GriffinCanCode/filemanager/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/filemanager/internal/providers/filesystem"
	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
)

// multipartOverhead is the slack allowed above the upload ceiling for
// multipart boundaries and the other form fields.
const multipartOverhead = 1 << 20

func (d *Dispatcher) login(c *gin.Context, _ *session.Session) error {
	name := input(c, "username", "name")
	secret := input(c, "password", "secret")

	sess, err := d.guard.Login(c.Request.Context(), name, secret, d.token(c))
	if d.metrics != nil {
		if err != nil {
			d.metrics.RecordAuthAttempt("failure")
		} else {
			d.metrics.RecordAuthAttempt("success")
		}
	}
	if err != nil {
		return err
	}

	d.setSessionCookie(c, sess.Token)
	c.JSON(http.StatusOK, Envelope{Success: true})
	return nil
}

func (d *Dispatcher) logout(c *gin.Context, _ *session.Session) error {
	d.guard.Logout(c.Request.Context(), d.token(c))
	d.clearSessionCookie(c)
	c.Redirect(http.StatusFound, "/")
	return nil
}

func (d *Dispatcher) list(c *gin.Context, _ *session.Session) error {
	path := input(c, "path")
	items, err := d.files.List(path)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, ListResponse{Success: true, Items: items, Current: path})
	return nil
}

func (d *Dispatcher) create(c *gin.Context, _ *session.Session) error {
	if err := d.files.Create(input(c, "path"), input(c, "name"), input(c, "type", "kind")); err != nil {
		return err
	}
	c.JSON(http.StatusOK, success("Created"))
	return nil
}

func (d *Dispatcher) rename(c *gin.Context, _ *session.Session) error {
	if err := d.files.Rename(input(c, "oldPath"), input(c, "newName")); err != nil {
		return err
	}
	c.JSON(http.StatusOK, success("Renamed"))
	return nil
}

func (d *Dispatcher) delete(c *gin.Context, _ *session.Session) error {
	report, err := d.files.Delete(input(c, "path"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, DeleteResponse{
		Success:   true,
		Message:   "Deleted",
		Removed:   report.Removed,
		Remaining: report.Remaining,
	})
	return nil
}

func (d *Dispatcher) read(c *gin.Context, _ *session.Session) error {
	content, err := d.files.Read(input(c, "path"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, ReadResponse{Success: true, Content: string(content.Data), MIME: content.MIME})
	return nil
}

func (d *Dispatcher) write(c *gin.Context, _ *session.Session) error {
	if err := d.files.Write(input(c, "path"), []byte(input(c, "content"))); err != nil {
		return err
	}
	c.JSON(http.StatusOK, success("Saved"))
	return nil
}

func (d *Dispatcher) upload(c *gin.Context, _ *session.Session) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, d.files.MaxUploadSize()+multipartOverhead)

	header, err := c.FormFile("file")
	switch {
	case bodyTooLarge(err):
		return errs.Wrap(errs.TooLarge, "File too large", err)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return errs.New(errs.ValidationFailure, "No file uploaded")
	case err != nil:
		return errs.Wrap(errs.TransferError, "Upload interrupted", err)
	}

	src, err := header.Open()
	if err != nil {
		return errs.Wrap(errs.TransferError, "Upload interrupted", err)
	}
	defer src.Close()

	if _, err := d.files.Upload(input(c, "path"), header.Filename, src, header.Size); err != nil {
		return err
	}
	if d.metrics != nil {
		d.metrics.RecordTransfer(monitoring.DirectionUpload, header.Size)
	}
	c.JSON(http.StatusOK, success("File uploaded"))
	return nil
}

func (d *Dispatcher) download(c *gin.Context, _ *session.Session) error {
	dl, err := d.files.Open(input(c, "path"))
	if err != nil {
		return err
	}
	defer dl.Close()

	c.DataFromReader(http.StatusOK, dl.Size, "application/octet-stream", dl.File, map[string]string{
		"Content-Disposition": contentDisposition(dl.Name),
		"Last-Modified":       dl.ModTime.UTC().Format(http.TimeFormat),
	})
	if d.metrics != nil {
		d.metrics.RecordTransfer(monitoring.DirectionDownload, dl.Size)
	}
	return nil
}

func (d *Dispatcher) compress(c *gin.Context, _ *session.Session) error {
	format := input(c, "format")
	if format == "" {
		format = string(filesystem.FormatZip)
	}

	name, err := d.archives.Compress(input(c, "path"), format)
	d.recordArchive("compress", format, err)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, ArchiveResponse{Success: true, Message: "Archive created: " + name, Name: name})
	return nil
}

func (d *Dispatcher) extract(c *gin.Context, _ *session.Session) error {
	path := input(c, "path")
	result, err := d.archives.Extract(path)

	format := "unknown"
	if f, _, found := filesystem.DetectFormat(path); found {
		format = string(f)
	}
	d.recordArchive("extract", format, err)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, ArchiveResponse{
		Success: true,
		Message: "Extracted to: " + result.Directory,
		Name:    result.Directory,
		Skipped: result.Skipped,
	})
	return nil
}

func (d *Dispatcher) move(c *gin.Context, _ *session.Session) error {
	sources := inputs(c, "paths", "paths[]")
	if sources == nil {
		if single := input(c, "path"); single != "" {
			sources = []string{single}
		}
	}

	result, err := d.files.Move(sources, input(c, "destination"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, MoveResponse{
		Success:    true,
		Message:    moveMessage(result),
		Moved:      result.Moved,
		Skipped:    result.Skipped,
		FirstError: result.FirstError,
	})
	return nil
}

func (d *Dispatcher) changePassword(c *gin.Context, sess *session.Session) error {
	current := input(c, "currentPassword", "currentSecret")
	next := input(c, "newPassword", "newSecret")
	if err := d.guard.ChangePassword(c.Request.Context(), sess.AccountName, current, next); err != nil {
		return err
	}
	c.JSON(http.StatusOK, success("Password changed"))
	return nil
}

func (d *Dispatcher) recordArchive(op, format string, err error) {
	if d.metrics == nil {
		return
	}
	if _, perr := filesystem.ParseFormat(format); perr != nil {
		format = "unknown"
	}
	d.metrics.RecordArchive(op, format, outcome(err))
}

func moveMessage(r filesystem.MoveResult) string {
	noun := "items"
	if r.Moved == 1 {
		noun = "item"
	}
	msg := fmt.Sprintf("Moved %d %s", r.Moved, noun)
	if r.Skipped > 0 {
		msg += fmt.Sprintf(" (%d skipped)", r.Skipped)
	}
	return msg
}

// contentDisposition quotes name for the attachment header and adds an
// RFC 5987 form when it is not plain ASCII.
func contentDisposition(name string) string {
	quoted := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", "").Replace(name)
	header := `attachment; filename="` + quoted + `"`
	for _, r := range name {
		if r > 0x7e || r < 0x20 {
			return header + "; filename*=UTF-8''" + url.PathEscape(name)
		}
	}
	return header
}
