package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessLogo_ResizesToJPEG(t *testing.T) {
	out, err := ProcessLogo(bytes.NewReader(pngBytes(t, 600, 200)), "logo.PNG")
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, LogoWidth, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestProcessLogo_RejectsUnknownExtension(t *testing.T) {
	_, err := ProcessLogo(strings.NewReader("GIF89a"), "logo.gif")
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestProcessLogo_RejectsGarbage(t *testing.T) {
	_, err := ProcessLogo(strings.NewReader("not a png"), "logo.png")
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestSaveLogo_Local(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	url, err := SaveLogo(context.Background(), s, bytes.NewReader(pngBytes(t, 50, 50)), "x.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/static/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	_, err = os.Stat(filepath.Join(dir, strings.TrimPrefix(url, "/static/uploads/")))
	assert.NoError(t, err)
}

type fakeS3 struct {
	in   *s3.PutObjectInput
	body []byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Storage_Put(t *testing.T) {
	fake := &fakeS3{}
	s := newS3Storage(fake, "logos-bucket", "https://cdn.example.com/")

	url, err := s.Put(context.Background(), "logos/a.jpg", strings.NewReader("data"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/logos/a.jpg", url)
	assert.Equal(t, "logos-bucket", aws.ToString(fake.in.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(fake.in.ContentType))
	assert.Equal(t, []byte("data"), fake.body)
}
