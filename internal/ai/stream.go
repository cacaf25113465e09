package ai

import (
	"context"
	"strings"
)

// streamChunkWords is how many words each streamed chunk carries.
const streamChunkWords = 8

// GenerateTextStream generates a story and yields it in word chunks through
// a bounded channel, so the transport layer can flush progressively. The
// producer goroutine closes the channel when the text is exhausted and
// stops early when ctx is cancelled; a failed generation closes the channel
// after sending nothing, with the error delivered on errc.
func (c *Client) GenerateTextStream(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	chunks := make(chan string, 4)
	errc := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errc)

		text, err := c.GenerateText(ctx, prompt)
		if err != nil {
			errc <- err
			return
		}

		words := strings.Fields(text)
		for i := 0; i < len(words); i += streamChunkWords {
			end := i + streamChunkWords
			if end > len(words) {
				end = len(words)
			}
			chunk := strings.Join(words[i:end], " ")
			if end < len(words) {
				chunk += " "
			}

			select {
			case chunks <- chunk:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()

	return chunks, errc
}
