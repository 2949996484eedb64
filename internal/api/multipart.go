package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
)

// Multipart field names expected by the upload endpoint
const (
	FieldBeforeImage = "before_image"
	FieldAfterImage  = "after_image"
	FieldBeforeYear  = "before_image_year"
	FieldAfterYear   = "after_image_year"
)

// ImageFile is one image streamed into a multipart upload
type ImageFile struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// UploadRequest is an image pair with the years it was captured in
type UploadRequest struct {
	Before     ImageFile
	After      ImageFile
	BeforeYear int
	AfterYear  int
}

// newMultipartBody streams the upload through a pipe so images are never
// buffered in memory as a whole.
func newMultipartBody(req UploadRequest) (io.Reader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUpload(mw, req)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeUpload(mw *multipart.Writer, req UploadRequest) error {
	if err := writeImagePart(mw, FieldBeforeImage, req.Before); err != nil {
		return err
	}
	if err := writeImagePart(mw, FieldAfterImage, req.After); err != nil {
		return err
	}
	if err := mw.WriteField(FieldBeforeYear, strconv.Itoa(req.BeforeYear)); err != nil {
		return fmt.Errorf("write %s: %w", FieldBeforeYear, err)
	}
	if err := mw.WriteField(FieldAfterYear, strconv.Itoa(req.AfterYear)); err != nil {
		return fmt.Errorf("write %s: %w", FieldAfterYear, err)
	}
	return nil
}

func writeImagePart(mw *multipart.Writer, field string, img ImageFile) error {
	if img.Content == nil {
		return fmt.Errorf("%s: no image content", field)
	}

	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, img.Name))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create %s part: %w", field, err)
	}
	if _, err := io.Copy(part, img.Content); err != nil {
		return fmt.Errorf("copy %s: %w", field, err)
	}
	return nil
}
