package tools

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/andrewlwn77/nocodb-mcp/internal/nocodb"
	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

// Attachment tools report backend failures in their result with
// success=false. A missing local file is still an error.

func attachmentTools() []Tool {
	attachmentField := str("attachment_field", "The name of the attachment field")
	return []Tool{
		{
			Name:        "upload_attachment",
			Description: "Upload a file attachment to NocoDB storage",
			InputSchema: object(
				str("file_path", "Path to the file to upload"),
				str("storage_path", "Optional path in NocoDB storage"),
			).require("file_path"),
			run: bind(uploadAttachment),
		},
		{
			Name:        "upload_attachment_by_url",
			Description: "Upload files to NocoDB storage from URLs",
			InputSchema: object(
				list("urls", "Array of URLs to upload", Property{Type: "string"}),
				str("storage_path", "Optional path in NocoDB storage"),
			).require("urls"),
			run: bind(uploadAttachmentByURL),
		},
		{
			Name:        "attach_file_to_record",
			Description: "Attach an uploaded file to a record",
			InputSchema: object(
				baseIDProp,
				tableNameProp,
				str(argRecordID, "The ID of the record"),
				attachmentField,
				str("file_path", "Path to the file to upload and attach"),
			).require(argBaseID, argTableName, argRecordID, "attachment_field", "file_path"),
			run: bind(attachFileToRecord),
		},
		{
			Name:        "get_attachment_info",
			Description: "Get information about file attachments in a record",
			InputSchema: object(
				baseIDProp,
				tableNameProp,
				str(argRecordID, "The ID of the record"),
				attachmentField,
			).require(argBaseID, argTableName, argRecordID, "attachment_field"),
			run: bind(getAttachmentInfo),
		},
	}
}

// failure is the result of an attachment tool whose backend call failed.
type failure struct {
	Success  bool     `json:"success"`
	Error    string   `json:"error"`
	FilePath string   `json:"file_path,omitempty"`
	URLs     []string `json:"urls,omitempty"`
	RecordID string   `json:"record_id,omitempty"`
}

type uploadArgs struct {
	FilePath    string `json:"file_path"`
	StoragePath string `json:"storage_path"`
}

func uploadAttachment(ctx context.Context, c *nocodb.Client, args *uploadArgs) (any, error) {
	info, err := nocodb.StatFile(args.FilePath)
	if err != nil {
		return nil, err
	}
	result, err := c.UploadFile(ctx, args.FilePath, args.StoragePath)
	if err != nil {
		if errors.Is(err, types.ErrFileNotFound) {
			return nil, err
		}
		return failure{Error: err.Error(), FilePath: args.FilePath}, nil
	}
	return struct {
		Success      bool        `json:"success"`
		FileName     string      `json:"file_name"`
		FileSize     int64       `json:"file_size"`
		UploadResult types.Value `json:"upload_result"`
		Message      string      `json:"message"`
	}{true, filepath.Base(args.FilePath), info.Size(), result, "File uploaded successfully"}, nil
}

type uploadByURLArgs struct {
	URLs        []string `json:"urls"`
	StoragePath string   `json:"storage_path"`
}

func uploadAttachmentByURL(ctx context.Context, c *nocodb.Client, args *uploadByURLArgs) (any, error) {
	result, err := c.UploadByURL(ctx, args.URLs, args.StoragePath)
	if err != nil {
		urls := args.URLs
		if urls == nil {
			urls = []string{}
		}
		return failure{Error: err.Error(), URLs: urls}, nil
	}
	return struct {
		Success      bool        `json:"success"`
		URLsCount    int         `json:"urls_count"`
		UploadResult types.Value `json:"upload_result"`
		Message      string      `json:"message"`
	}{true, len(args.URLs), result, "Files uploaded successfully from URLs"}, nil
}

type attachArgs struct {
	recordArgs
	AttachmentField string `json:"attachment_field"`
	FilePath        string `json:"file_path"`
}

func attachFileToRecord(ctx context.Context, c *nocodb.Client, args *attachArgs) (any, error) {
	id := string(args.RecordID)
	res, err := c.AttachFile(ctx, args.BaseID, args.TableName, id, args.AttachmentField, args.FilePath)
	if err != nil {
		if errors.Is(err, types.ErrFileNotFound) {
			return nil, err
		}
		return failure{Error: err.Error(), FilePath: args.FilePath, RecordID: id}, nil
	}
	return struct {
		Success          bool   `json:"success"`
		Message          string `json:"message"`
		FileName         string `json:"file_name"`
		RecordID         string `json:"record_id"`
		AttachmentField  string `json:"attachment_field"`
		TotalAttachments int    `json:"total_attachments"`
	}{true, "File uploaded and attached to record", filepath.Base(args.FilePath), id, args.AttachmentField, len(res.Attachments)}, nil
}

type attachmentInfoArgs struct {
	recordArgs
	AttachmentField string `json:"attachment_field"`
}

func getAttachmentInfo(ctx context.Context, c *nocodb.Client, args *attachmentInfoArgs) (any, error) {
	id := string(args.RecordID)
	attachments, err := c.GetAttachments(ctx, args.BaseID, args.TableName, id, args.AttachmentField)
	if err != nil {
		return nil, err
	}
	if len(attachments) == 0 {
		return struct {
			Attachments []types.Value `json:"attachments"`
			Message     string        `json:"message"`
		}{[]types.Value{}, "No attachments found in the specified field"}, nil
	}
	return struct {
		Attachments []types.Value `json:"attachments"`
		Count       int           `json:"count"`
		Field       string        `json:"field"`
		RecordID    string        `json:"record_id"`
	}{attachments, len(attachments), args.AttachmentField, id}, nil
}
