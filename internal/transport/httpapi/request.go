package httpapi

import (
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"rncflow/internal/domain/upload"
	"rncflow/internal/errs"
)

// multipartMemory is how much of a form echo keeps in memory before
// spilling file parts to temp files.
const multipartMemory = 32 << 20

func pathID(c echo.Context) (uint64, error) {
	var id uint64
	if err := echo.PathParamsBinder(c).MustUint64("id", &id).BindError(); err != nil {
		return 0, errs.Validationf("http.path", "invalid id %q", c.Param("id"))
	}
	if id == 0 {
		return 0, errs.Validationf("http.path", "invalid id %q", c.Param("id"))
	}
	return id, nil
}

// bindJSON decodes and validates a JSON body.
func bindJSON(c echo.Context, op string, req any) error {
	if err := c.Bind(req); err != nil {
		return errs.Validationf(op, "unable to process request: %v", err)
	}
	if err := validate.Struct(req); err != nil {
		return errs.Validationf(op, "could not validate request: %s", err.Error())
	}
	return nil
}

// formFiles reads the parts of field. The content type is sniffed from
// the bytes; the client's declared type is ignored. Each part is read up
// to max+1 bytes so oversized files still fail the policy size check.
func (s *Server) formFiles(c echo.Context, field string) ([]upload.File, error) {
	const op = "http.upload"
	req := c.Request()
	if !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, he
		}
		return nil, errs.Validationf(op, "invalid multipart body: %v", err)
	}
	if req.MultipartForm == nil {
		return nil, nil
	}

	headers := req.MultipartForm.File[field]
	files := make([]upload.File, 0, len(headers))
	for _, fh := range headers {
		f, err := s.readPart(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func (s *Server) readPart(fh *multipart.FileHeader) (upload.File, error) {
	src, err := fh.Open()
	if err != nil {
		return upload.File{}, errs.Wrapf(err, "open upload %q", fh.Filename)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, s.opts.MaxFileBytes+1))
	if err != nil {
		return upload.File{}, errs.Wrapf(err, "read upload %q", fh.Filename)
	}
	return upload.File{
		Filename:    fh.Filename,
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

// formValue reads a text field from either a multipart or urlencoded form.
func formValue(c echo.Context, name string) string {
	return strings.TrimSpace(c.FormValue(name))
}
