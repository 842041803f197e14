package discord

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Discord's documented embed description cap is 4096; stay well under it.
const (
	DescriptionLimit = 3000
	ContentLimit     = 2000
	TitleLimit       = 256
	FooterLimit      = 2048
	UsernameLimit    = 32
	MaxEmbeds        = 10
	MaxFields        = 25
	FileLimit        = 10 * 1024 * 1024
	attachLimit      = 9 * 1024 * 1024
)

var timestampRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`)

type Author struct {
	Name    string `json:"name,omitempty"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

type Field struct {
	Name   string `json:"name,omitempty"`
	Value  string `json:"value,omitempty"`
	Inline bool   `json:"inline"`
}

type EmbedURL struct {
	URL string `json:"url,omitempty"`
}

type Footer struct {
	Text    string `json:"text,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

type Embed struct {
	Author      *Author   `json:"author,omitempty"`
	Title       string    `json:"title,omitempty"`
	Thumbnail   *EmbedURL `json:"thumbnail,omitempty"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	Color       int       `json:"color,omitempty"`
	Fields      []Field   `json:"fields,omitempty"`
	Image       *EmbedURL `json:"image,omitempty"`
	Footer      *Footer   `json:"footer,omitempty"`
	Timestamp   string    `json:"timestamp,omitempty"`
}

// Message is one webhook payload. Embeds and file uploads cannot share a
// request, the webhook client sends them separately.
type Message struct {
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Content   string  `json:"content,omitempty"`
	Embeds    []Embed `json:"embeds,omitempty"`
}

// Validate counts characters, not bytes, so its limits line up with the
// rune windows SplitText produces.
func (e *Embed) Validate() error {
	if utf8.RuneCountInString(e.Title) > TitleLimit {
		return fmt.Errorf("embed title exceeds %d characters", TitleLimit)
	}
	if utf8.RuneCountInString(e.Description) > DescriptionLimit {
		return fmt.Errorf("embed description exceeds %d characters", DescriptionLimit)
	}
	if len(e.Fields) > MaxFields {
		return fmt.Errorf("embed has more than %d fields", MaxFields)
	}
	if e.Footer != nil && utf8.RuneCountInString(e.Footer.Text) > FooterLimit {
		return fmt.Errorf("embed footer exceeds %d characters", FooterLimit)
	}
	if e.Timestamp != "" && !timestampRe.MatchString(e.Timestamp) {
		return fmt.Errorf("embed timestamp %q is not YYYY-MM-DD hh:mm", e.Timestamp)
	}
	return nil
}

func (m *Message) Validate() error {
	if utf8.RuneCountInString(m.Username) > UsernameLimit {
		return fmt.Errorf("username exceeds %d characters", UsernameLimit)
	}
	if utf8.RuneCountInString(m.Content) > ContentLimit {
		return fmt.Errorf("content exceeds %d characters", ContentLimit)
	}
	if len(m.Embeds) > MaxEmbeds {
		return fmt.Errorf("message has more than %d embeds", MaxEmbeds)
	}
	for i := range m.Embeds {
		if err := m.Embeds[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// HexColor converts a "#RRGGBB" string to the integer form embeds use.
func HexColor(hex string) int {
	hex = strings.TrimPrefix(hex, "#")
	v, err := strconv.ParseInt(hex, 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}

// SplitText segments text into chunks of at most limit characters,
// preferring to break at a newline. Empty segments are dropped.
func SplitText(text string, limit int) []string {
	var segments []string
	runes := []rune(text)
	start := 0

	for start < len(runes) {
		if len(runes)-start <= limit {
			if segment := strings.Trim(string(runes[start:]), "\n"); segment != "" {
				segments = append(segments, segment)
			}
			break
		}

		end := start + limit
		window := string(runes[start:end])

		var segment string
		if pos := strings.LastIndex(window, "\n"); pos != -1 {
			segment = strings.Trim(window[:pos], "\n")
			start += len([]rune(window[:pos])) + 1
		} else {
			segment = strings.Trim(window, "\n")
			start = end
		}

		if segment != "" {
			segments = append(segments, segment)
		}
	}

	return segments
}
