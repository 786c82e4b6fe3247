package suggest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/net/html"

	"suggestbox/internal/domain"
)

// ErrMalformed marks a response that does not carry a count and a matching list
var ErrMalformed = errors.New("malformed suggestion response")

// Decoder turns a response body into a suggestion set
type Decoder interface {
	Decode(contentType string, body []byte) (domain.SuggestionSet, error)
}

// DecoderFor returns the decoder for a configured format name
func DecoderFor(format string) (Decoder, error) {
	switch strings.ToLower(format) {
	case "", "auto":
		return AutoDecoder{}, nil
	case "html":
		return HTMLDecoder{}, nil
	case "json":
		return JSONDecoder{}, nil
	case "msgpack":
		return MsgpackDecoder{}, nil
	default:
		return nil, fmt.Errorf("unknown suggestion format %q", format)
	}
}

// AutoDecoder picks a decoder from the response content type; anything that
// is not JSON or msgpack is treated as an HTML fragment.
type AutoDecoder struct{}

func (AutoDecoder) Decode(contentType string, body []byte) (domain.SuggestionSet, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return JSONDecoder{}.Decode(contentType, body)
	case mediaType == "application/msgpack" || mediaType == "application/x-msgpack" || mediaType == "application/vnd.msgpack":
		return MsgpackDecoder{}.Decode(contentType, body)
	default:
		return HTMLDecoder{}.Decode(contentType, body)
	}
}

const (
	htmlListID    = "suggestionList"
	htmlItemClass = "suggestionItem"
	htmlCountAttr = "data-count"
)

// HTMLDecoder reads the rendered fragment served by the image board:
//
//	<ul id="suggestionList" data-count="2">
//	  <li class="suggestionItem">cat</li>
//	  <li class="suggestionItem">car</li>
//	</ul>
type HTMLDecoder struct{}

func (HTMLDecoder) Decode(_ string, body []byte) (domain.SuggestionSet, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return domain.SuggestionSet{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	list := findNode(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == htmlListID
	})
	if list == nil {
		return domain.SuggestionSet{}, fmt.Errorf("%w: no #%s element", ErrMalformed, htmlListID)
	}

	rawCount, ok := lookupAttr(list, htmlCountAttr)
	if !ok {
		return domain.SuggestionSet{}, fmt.Errorf("%w: missing %s", ErrMalformed, htmlCountAttr)
	}
	count, err := strconv.Atoi(strings.TrimSpace(rawCount))
	if err != nil {
		return domain.SuggestionSet{}, fmt.Errorf("%w: bad %s %q", ErrMalformed, htmlCountAttr, rawCount)
	}

	var items []string
	walk(list, func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, htmlItemClass) {
			items = append(items, innerText(n))
		}
	})

	return checkCount(count, items)
}

// JSONDecoder reads {"count": 2, "suggestions": ["cat", "car"]}
type JSONDecoder struct{}

type jsonResponse struct {
	Count       *int     `json:"count"`
	Suggestions []string `json:"suggestions"`
}

func (JSONDecoder) Decode(_ string, body []byte) (domain.SuggestionSet, error) {
	var resp jsonResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.SuggestionSet{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if resp.Count == nil {
		return domain.SuggestionSet{}, fmt.Errorf("%w: missing count", ErrMalformed)
	}
	return checkCount(*resp.Count, resp.Suggestions)
}

// MsgpackDecoder reads a msgpack completion response
// {"s": [{"w": "cat", "r": 1}], "c": 1}. Items keep the order they were sent in.
type MsgpackDecoder struct{}

type msgpackSuggestion struct {
	Word string `msgpack:"w"`
	Rank uint16 `msgpack:"r"`
}

type msgpackResponse struct {
	Suggestions []msgpackSuggestion `msgpack:"s"`
	Count       *int                `msgpack:"c"`
}

func (MsgpackDecoder) Decode(_ string, body []byte) (domain.SuggestionSet, error) {
	var resp msgpackResponse
	if err := msgpack.Unmarshal(body, &resp); err != nil {
		return domain.SuggestionSet{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if resp.Count == nil {
		return domain.SuggestionSet{}, fmt.Errorf("%w: missing count", ErrMalformed)
	}
	items := make([]string, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		items = append(items, s.Word)
	}
	return checkCount(*resp.Count, items)
}

func checkCount(count int, items []string) (domain.SuggestionSet, error) {
	if count != len(items) {
		return domain.SuggestionSet{}, fmt.Errorf("%w: count %d but %d items", ErrMalformed, count, len(items))
	}
	return domain.NewSuggestionSet(items), nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		fn(c)
		walk(c, fn)
	}
}

func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// innerText joins the text below n with runs of whitespace collapsed
func innerText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
	})
	return strings.Join(strings.Fields(b.String()), " ")
}
