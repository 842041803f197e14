package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DeliveryError is a non-success response from the webhook endpoint. The
// caller leaves the record's status flag unchanged so the delivery is
// retried on the next run.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("webhook delivery failed with status %d: %s", e.StatusCode, e.Body)
}

// Webhook posts messages to one Discord webhook URL, paced so consecutive
// sends do not trip the endpoint's rate limit.
type Webhook struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:     url,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

// Send delivers one message, with an optional batch of named byte blobs
// attached as files. Embeds and files cannot share a request.
func (w *Webhook) Send(ctx context.Context, msg *Message, files map[string][]byte) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}

	var req *http.Request
	var err error
	if len(files) == 0 {
		payload, merr := json.Marshal(msg)
		if merr != nil {
			return merr
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)

		payload, merr := json.Marshal(msg)
		if merr != nil {
			return merr
		}
		if err := writer.WriteField("payload_json", string(payload)); err != nil {
			return err
		}
		i := 0
		for name, data := range files {
			part, perr := writer.CreateFormFile(fmt.Sprintf("files[%d]", i), name)
			if perr != nil {
				return perr
			}
			if _, err := part.Write(data); err != nil {
				return err
			}
			i++
		}
		writer.Close()

		req, err = http.NewRequestWithContext(ctx, http.MethodPost, w.url, body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return &DeliveryError{StatusCode: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &DeliveryError{StatusCode: resp.StatusCode, Body: string(text)}
	}
	return nil
}

// Builder accumulates the ordered transmissions of one logical post: plain
// content messages, embed messages, then file messages. A body longer than
// the embed limit is segmented across several messages.
type Builder struct {
	base      Message
	embedBase Embed

	messages []*Message
	embeds   []Embed
	files    []fileAttachment
}

type fileAttachment struct {
	name string
	data []byte
}

// NewBuilder seeds the builder with the sender identity and the embed
// boilerplate shared by every transmission.
func NewBuilder(base Message, embedBase Embed) *Builder {
	return &Builder{base: base, embedBase: embedBase}
}

func (b *Builder) cleanMessage() *Message {
	msg := b.base
	msg.Content = ""
	msg.Embeds = nil
	return &msg
}

func (b *Builder) cleanEmbed() Embed {
	embed := b.embedBase
	embed.Fields = nil
	return embed
}

// AddContent queues the text as plain content messages, split at the
// content limit.
func (b *Builder) AddContent(text string) {
	for _, segment := range SplitText(text, ContentLimit) {
		msg := b.cleanMessage()
		msg.Content = segment
		b.messages = append(b.messages, msg)
	}
}

// AddBody queues the text as embed messages carrying the shared embed
// boilerplate, split at the description limit.
func (b *Builder) AddBody(text string) {
	for _, segment := range SplitText(text, DescriptionLimit) {
		msg := b.cleanMessage()
		embed := b.cleanEmbed()
		embed.Description = segment
		msg.Embeds = []Embed{embed}
		b.messages = append(b.messages, msg)
	}
}

// AddImage attaches an image to the last queued embed, or opens a fresh
// embed when none exists yet. One image per embed; the webhook ignores
// extras.
func (b *Builder) AddImage(url string) {
	if url == "" {
		return
	}
	image := &EmbedURL{URL: url}
	switch {
	case len(b.embeds) > 0:
		b.embeds[len(b.embeds)-1].Image = image
	case len(b.messages) > 0:
		last := b.messages[len(b.messages)-1]
		if len(last.Embeds) == 0 {
			last.Embeds = []Embed{b.cleanEmbed()}
		}
		last.Embeds[len(last.Embeds)-1].Image = image
	default:
		embed := b.cleanEmbed()
		embed.Image = image
		b.embeds = append(b.embeds, embed)
	}
}

// AddEmbed queues a fully formed extra embed (e.g. an attached video).
func (b *Builder) AddEmbed(embed Embed) {
	b.embeds = append(b.embeds, embed)
}

// AddFile queues a byte blob as a file transmission. Blobs over the
// attachment limit are rejected.
func (b *Builder) AddFile(name string, data []byte) error {
	if len(data) > attachLimit {
		return fmt.Errorf("file %s is too large to attach (%d bytes)", name, len(data))
	}
	if name == "" {
		name = "file"
	}
	b.files = append(b.files, fileAttachment{name: name, data: data})
	return nil
}

// AddFilePath reads a local file and queues it.
func (b *Builder) AddFilePath(name, path string) error {
	if name == "" {
		name = filepath.Base(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return b.AddFile(name, data)
}

// AddFileURL fetches a remote file and queues it.
func (b *Builder) AddFileURL(ctx context.Context, name, url string) error {
	if name == "" {
		name = filepath.Base(strings.SplitN(url, "=", 2)[0])
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s returned status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, FileLimit))
	if err != nil {
		return err
	}
	return b.AddFile(name, data)
}

// Flush sends everything queued, in order: content/body messages, then one
// message per ten accumulated embeds, then one message per file.
func (b *Builder) Flush(ctx context.Context, w *Webhook) error {
	for _, msg := range b.messages {
		if err := w.Send(ctx, msg, nil); err != nil {
			return err
		}
	}
	for start := 0; start < len(b.embeds); start += MaxEmbeds {
		end := min(start+MaxEmbeds, len(b.embeds))
		msg := b.cleanMessage()
		msg.Embeds = b.embeds[start:end]
		if err := w.Send(ctx, msg, nil); err != nil {
			return err
		}
	}
	for _, file := range b.files {
		msg := b.cleanMessage()
		if err := w.Send(ctx, msg, map[string][]byte{file.name: file.data}); err != nil {
			return err
		}
	}
	return nil
}
