package attachment

import (
	"Harbor/internal/pkg/consts"
	"bytes"
	"io"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// makeThumbnail 生成 JPEG 缩略图，保持宽高比收缩到最长边以内
func makeThumbnail(reader io.Reader) (io.Reader, int64, error) {
	img, err := imaging.Decode(reader, imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, errors.Wrap(err, "图片解码失败")
	}

	thumb := imaging.Fit(img, consts.ThumbnailMaxEdge, consts.ThumbnailMaxEdge, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, 0, errors.Wrap(err, "缩略图编码失败")
	}
	return &buf, int64(buf.Len()), nil
}
