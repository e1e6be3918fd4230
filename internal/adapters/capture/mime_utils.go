package capture

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
)

// maxMultipartDepth bounds nested multipart recursion
const maxMultipartDepth = 8

// attachment is one decoded image part of a message
type attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// extractImages returns every image/* part of a message, decoded.
// A single-part message whose body is an image counts as one attachment.
func extractImages(msg *mail.Message) ([]attachment, error) {
	return walkPart(textproto.MIMEHeader(msg.Header), msg.Body, 0)
}

func walkPart(header textproto.MIMEHeader, body io.Reader, depth int) ([]attachment, error) {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Unparseable parts are skipped, not fatal
		return nil, nil
	}
	mediaType = strings.ToLower(mediaType)

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		if depth >= maxMultipartDepth {
			return nil, fmt.Errorf("multipart nesting deeper than %d", maxMultipartDepth)
		}
		boundary, ok := params["boundary"]
		if !ok {
			return nil, nil
		}

		var images []attachment
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextRawPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				// Keep what was decoded before the damage
				return images, nil
			}

			found, err := walkPart(part.Header, part, depth+1)
			part.Close()
			if err != nil {
				return nil, err
			}
			images = append(images, found...)
		}
		return images, nil

	case strings.HasPrefix(mediaType, "image/"):
		data, err := io.ReadAll(decodeTransfer(header.Get("Content-Transfer-Encoding"), body))
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s part: %w", mediaType, err)
		}
		return []attachment{{
			Filename:    partFilename(header, params),
			ContentType: mediaType,
			Data:        data,
		}}, nil

	default:
		return nil, nil
	}
}

// decodeTransfer undoes the part's Content-Transfer-Encoding
func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// partFilename prefers the Content-Disposition filename over the Content-Type name
func partFilename(header textproto.MIMEHeader, typeParams map[string]string) string {
	if disposition := header.Get("Content-Disposition"); disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
			return decodeEncodedHeader(params["filename"])
		}
	}
	return decodeEncodedHeader(typeParams["name"])
}

// decodeEncodedHeader decodes RFC 2047 words, returning the input when it cannot
func decodeEncodedHeader(value string) string {
	decoded, err := new(mime.WordDecoder).DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}
