package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-resty/resty/v2"
)

// HttpDump receives the full text of every request/response pair made by an instrumented
// client, keyed by request id.
type HttpDump interface {
	Write(id string, contents string)
}

// FilesystemDump writes every exchange into its own file under a directory.
type FilesystemDump struct {
	directory string
}

// NewFilesystemDump clears and recreates `dir`.
func NewFilesystemDump(dir string) (FilesystemDump, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return FilesystemDump{}, err
	}
	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return FilesystemDump{}, err
	}
	return FilesystemDump{directory: dir}, nil
}

func (d FilesystemDump) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(d.directory, id+".txt"), []byte(contents), 0o600)
	if err != nil {
		slog.Warn("failed to write http dump", "id", id, "err", err)
	}
}

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	lines := []string{}
	for _, k := range keys {
		for _, v := range headers[k] {
			lines = append(lines, fmt.Sprintf("%s: %s", k, v))
		}
	}
	return strings.Join(lines, "\n")
}

func formatRequestBody(req *http.Request) string {
	if req.GetBody == nil || req.Body == nil || req.Body == http.NoBody {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	// resty hands out a nil body for bodiless requests
	if body == nil {
		return ""
	}
	defer body.Close()
	read, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	return string(read)
}

// request method, url, headers, body then response status, url, headers, body
const httpExchangeTemplate = `---- REQUEST ----

%s %s

%s

%s

---- RESPONSE ----

%d %s

%s

%s`

func formatHttpExchange(res *resty.Response) string {
	responseUrl := res.Request.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		responseUrl = res.RawResponse.Request.URL.String()
	}

	return fmt.Sprintf(
		httpExchangeTemplate,
		res.Request.Method, res.Request.URL,
		formatHeaders(res.Request.RawRequest.Header),
		formatRequestBody(res.Request.RawRequest),
		res.StatusCode(), responseUrl,
		formatHeaders(res.Header()),
		res.String(),
	)
}
