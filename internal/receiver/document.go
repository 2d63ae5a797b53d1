// internal/receiver/document.go
package receiver

import (
	"context"
)

// NewDocumentReceiver binds the word processor command set to an open document.
func NewDocumentReceiver(entry Entry, obj Object) Receiver {
	r := &bound{entry: entry, obj: obj}
	r.CommandSet = NewCommandSet("document",
		Command{
			Name:    "insert_table",
			Summary: "Insert a table with the given number of rows and columns at the cursor.",
			Params: []Param{
				{Name: "rows", Type: ParamInt, Required: true},
				{Name: "columns", Type: ParamInt, Required: true},
			},
			Run: func(ctx context.Context, args Values) (any, error) {
				rows, cols := args.Int("rows"), args.Int("columns")
				if rows <= 0 || cols <= 0 {
					return nil, &InvalidArgumentError{Operation: "insert_table", Reason: "rows and columns must be positive"}
				}
				return obj.Invoke(ctx, "InsertTable", map[string]any{"rows": rows, "columns": cols})
			},
		},
		Command{
			Name:    "select_text",
			Summary: "Select the first occurrence of text in the document.",
			Params:  []Param{{Name: "text", Type: ParamString, Required: true}},
			Run: func(ctx context.Context, args Values) (any, error) {
				if args.String("text") == "" {
					return nil, &InvalidArgumentError{Operation: "select_text", Argument: "text", Reason: "must not be empty"}
				}
				return obj.Invoke(ctx, "SelectText", map[string]any{"text": args.String("text")})
			},
		},
		Command{
			Name:    "select_table",
			Summary: "Select the n-th table of the document, counting from 1.",
			Params:  []Param{{Name: "number", Type: ParamInt, Required: true}},
			Run: func(ctx context.Context, args Values) (any, error) {
				if args.Int("number") < 1 {
					return nil, &InvalidArgumentError{Operation: "select_table", Argument: "number", Reason: "tables are numbered from 1"}
				}
				return obj.Invoke(ctx, "SelectTable", map[string]any{"number": args.Int("number")})
			},
		},
		Command{
			Name:    "save_as",
			Summary: "Save the document. Empty values keep the current directory, name or format.",
			Params: []Param{
				{Name: "file_dir", Type: ParamString, Default: ""},
				{Name: "file_name", Type: ParamString, Default: ""},
				{Name: "file_ext", Type: ParamString, Default: ""},
			},
			Run: func(ctx context.Context, args Values) (any, error) {
				return obj.Invoke(ctx, "SaveAs", map[string]any{
					"file_dir":  args.String("file_dir"),
					"file_name": args.String("file_name"),
					"file_ext":  args.String("file_ext"),
				})
			},
		},
	)
	return r
}
