package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"systemqa/internal/services"
	"systemqa/internal/workspace"
)

// PNGContentType is the content type used for published screenshots.
const PNGContentType = "image/png"

// Download streams the object at key into ws, keeping the object's base name,
// and returns the local path. A failed transfer leaves no partial file behind.
func Download(ctx context.Context, client Client, key string, ws *workspace.Workspace) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", services.Wrap(services.ErrValidation, "blob", "download", "video key is empty", nil)
	}
	base := path.Base(key)
	if base == "." || base == "/" {
		return "", services.Wrap(services.ErrValidation, "blob", "download", fmt.Sprintf("video key %q has no file name", key), nil)
	}

	body, err := client.Get(ctx, key)
	if err != nil {
		return "", services.Wrap(services.ErrStorage, "blob", "download", fmt.Sprintf("get %s", key), err)
	}
	defer body.Close()

	localPath := ws.Join(base)
	file, err := os.Create(localPath)
	if err != nil {
		return "", services.Wrap(services.ErrStorage, "blob", "download", "create local file", err)
	}
	if _, err := io.Copy(file, body); err != nil {
		file.Close()
		os.Remove(localPath)
		return "", services.Wrap(services.ErrStorage, "blob", "download", fmt.Sprintf("stream %s", key), err)
	}
	if err := file.Close(); err != nil {
		os.Remove(localPath)
		return "", services.Wrap(services.ErrStorage, "blob", "download", "flush local file", err)
	}
	return localPath, nil
}

// Publish uploads the PNG at localPath to key and returns the key.
func Publish(ctx context.Context, client Client, localPath, key string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", services.Wrap(services.ErrStorage, "blob", "publish", "open screenshot", err)
	}
	defer file.Close()

	if err := client.Put(ctx, key, file, PNGContentType); err != nil {
		return "", services.Wrap(services.ErrStorage, "blob", "publish", fmt.Sprintf("put %s", key), err)
	}
	return key, nil
}

// ScreenshotKey places a screenshot next to its source video: the video's
// folder joined with the screenshot's file name.
func ScreenshotKey(videoKey, localPath string) string {
	name := filepath.Base(localPath)
	dir := path.Dir(strings.TrimSpace(videoKey))
	if dir == "." || dir == "" {
		return name
	}
	return dir + "/" + name
}
