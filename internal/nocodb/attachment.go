package nocodb

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

// UploadFile streams a local file to NocoDB storage as multipart form data
// and returns the backend's descriptor (usually an array of attachments).
// storagePath, when set, is sent as the "path" form field. A missing file
// fails with ErrFileNotFound before any request is made.
func (c *Client) UploadFile(ctx context.Context, filePath, storagePath string) (types.Value, error) {
	if _, err := StatFile(filePath); err != nil {
		return types.Null(), err
	}
	f, err := os.Open(filePath)
	if err != nil {
		return types.Null(), types.Errorf(types.ErrFileNotFound, "File not found: %s", filePath)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		defer f.Close()
		pw.CloseWithError(writeUploadForm(mw, f, filepath.Base(filePath), storagePath))
	}()

	var out types.Value
	err = c.do(ctx, http.MethodPost, pathUpload, nil, rawBody{r: pr, contentType: mw.FormDataContentType()}, &out)
	// Unblock the writer if the request ended before draining the body.
	pr.Close()
	if err != nil {
		return types.Null(), err
	}
	return out, nil
}

func writeUploadForm(mw *multipart.Writer, src io.Reader, fileName, storagePath string) error {
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}
	if storagePath != "" {
		if err := mw.WriteField("path", storagePath); err != nil {
			return err
		}
	}
	return mw.Close()
}

// StatFile returns path's file info, failing with ErrFileNotFound unless
// path names a regular file.
func StatFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, types.Errorf(types.ErrFileNotFound, "File not found: %s", path)
	}
	return info, nil
}

// UploadByURL asks NocoDB to fetch files from urls into storage. Without a
// storage path the body is a bare array of {url}; with one it is
// {urls, path}.
func (c *Client) UploadByURL(ctx context.Context, urls []string, storagePath string) (types.Value, error) {
	type urlItem struct {
		URL string `json:"url"`
	}
	items := make([]urlItem, len(urls))
	for i, u := range urls {
		items[i] = urlItem{URL: u}
	}

	var body any = items
	if storagePath != "" {
		body = struct {
			URLs []urlItem `json:"urls"`
			Path string    `json:"path"`
		}{items, storagePath}
	}

	var out types.Value
	if err := c.do(ctx, http.MethodPost, pathUploadByURL, nil, body, &out); err != nil {
		return types.Null(), err
	}
	return out, nil
}

// AttachResult reports an attach-to-record call.
type AttachResult struct {
	Uploaded    types.Value   // upload descriptor as returned by storage
	Attachments []types.Value // full field value written back
}

// AttachFile uploads filePath and appends its descriptor to an attachment
// field of a record, writing the whole array back with UpdateRecord.
// This is read-modify-write: two concurrent calls on the same record and
// field race, and the later write wins.
func (c *Client) AttachFile(ctx context.Context, baseID, tableName, recordID, field, filePath string) (*AttachResult, error) {
	uploaded, err := c.UploadFile(ctx, filePath, "")
	if err != nil {
		return nil, err
	}
	rec, err := c.GetRecord(ctx, baseID, tableName, recordID)
	if err != nil {
		return nil, err
	}
	current, _ := rec.Get(field)
	attachments, err := NormalizeAttachments(current)
	if err != nil {
		return nil, err
	}

	// Storage answers with an array of descriptors; spread it so the field
	// stays a flat list.
	if uploaded.Kind() == types.KindArray {
		attachments = append(attachments, uploaded.Items()...)
	} else {
		attachments = append(attachments, uploaded)
	}

	patch := types.NewRecord().Set(field, types.Array(attachments...))
	if _, err := c.UpdateRecord(ctx, baseID, tableName, recordID, patch); err != nil {
		return nil, err
	}
	return &AttachResult{Uploaded: uploaded, Attachments: attachments}, nil
}

// GetAttachments reads a record's attachment field as a list.
func (c *Client) GetAttachments(ctx context.Context, baseID, tableName, recordID, field string) ([]types.Value, error) {
	rec, err := c.GetRecord(ctx, baseID, tableName, recordID)
	if err != nil {
		return nil, err
	}
	current, _ := rec.Get(field)
	return NormalizeAttachments(current)
}

// NormalizeAttachments turns an attachment field value into a list. The
// field may be empty, a single descriptor, a JSON-encoded string of either
// form, or already an array.
func NormalizeAttachments(v types.Value) ([]types.Value, error) {
	if s, ok := v.StringValue(); ok {
		if strings.TrimSpace(s) == "" {
			return []types.Value{}, nil
		}
		var decoded types.Value
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, types.Errorf(types.ErrInvalidArgument, "attachment field is not valid JSON: %v", err)
		}
		v = decoded
	}

	switch v.Kind() {
	case types.KindNull:
		return []types.Value{}, nil
	case types.KindArray:
		items := v.Items()
		out := make([]types.Value, len(items))
		copy(out, items)
		return out, nil
	case types.KindBool:
		if b, _ := v.BoolValue(); !b {
			return []types.Value{}, nil
		}
	case types.KindNumber:
		if v.Float64() == 0 {
			return []types.Value{}, nil
		}
	}
	return []types.Value{v}, nil
}
