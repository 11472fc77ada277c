// Package extract turns a raw Zillow instant update email into a
// domain.Listing.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-message/mail"

	"github.com/swang373/zillowbot/internal/domain"
)

var (
	// ErrNoHTMLPart means the message carried no text/html body part.
	ErrNoHTMLPart = errors.New("email has no text/html part")

	// ErrMalformedListing means the HTML did not match the instant
	// update template well enough to produce a notifiable listing.
	ErrMalformedListing = errors.New("email does not match the instant update template")
)

// maxLabeledElements bounds the aria-label scan to the primary
// listing's fields. The template appends "suggested listing" blocks
// after the primary listing and those must never leak into the result.
const maxLabeledElements = 5

// Listing parses raw RFC822 bytes, locates the HTML part, and scrapes
// the labeled listing fields out of it.
func Listing(raw []byte) (domain.Listing, error) {
	body, err := htmlPart(raw)
	if err != nil {
		return domain.Listing{}, err
	}
	return fromHTML(body)
}

// htmlPart walks the MIME structure and returns the decoded content of
// the first inline text/html part. The mail reader applies the part's
// transfer encoding (quoted-printable for this vendor) while reading.
func htmlPart(raw []byte) (string, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse message: %w", err)
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read message part: %w", err)
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, err := h.ContentType()
		if err != nil {
			continue
		}
		if strings.EqualFold(ct, "text/html") {
			b, err := io.ReadAll(part.Body)
			if err != nil {
				return "", fmt.Errorf("decode html part: %w", err)
			}
			return string(b), nil
		}
	}

	return "", ErrNoHTMLPart
}

// fromHTML scans the document for elements carrying an aria-label and
// classifies the first five (document order) into listing fields.
func fromHTML(body string) (domain.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return domain.Listing{}, fmt.Errorf("parse html: %w", err)
	}

	var l domain.Listing
	doc.Find("[aria-label]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxLabeledElements {
			return false
		}
		switch classifyLabel(s.AttrOr("aria-label", "")) {
		case rolePhoto:
			l.URL = strings.TrimSpace(s.Find("a[href]").First().AttrOr("href", ""))
			l.ImageURL = strings.TrimSpace(s.AttrOr("background", ""))
		case rolePrice:
			l.Price = cleanText(s.Text())
		case roleFacts:
			l.Facts = cleanText(s.Text())
		case roleAddress:
			l.Address = stripZWJ(cleanText(s.Text()))
		case roleUnknown:
			// template noise, ignore
		}
		return true
	})

	if !l.Notifiable() {
		return domain.Listing{}, fmt.Errorf("%w: missing link or address", ErrMalformedListing)
	}
	return l, nil
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}

// stripZWJ drops the zero-width joiners Zillow sprinkles into the
// address line.
func stripZWJ(s string) string {
	return strings.ReplaceAll(s, "‍", "")
}
