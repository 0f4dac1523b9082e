package gemini

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"zenith/internal/models"
)

// imageResult is the outcome of one slideshow image request
type imageResult struct {
	Index    int
	Payload  models.Payload
	Error    error
	Duration time.Duration
}

// GenerateImages requests the three slideshow images in parallel and waits
// for all of them to settle. Partial success is returned in prompt order.
func (c *Client) GenerateImages(ctx context.Context, theme string) ([]models.Payload, error) {
	prompts := imagePrompts(theme)

	jobs := make(chan int, len(prompts))
	results := make(chan imageResult, len(prompts))

	numWorkers := c.opts.ImageWorkers
	if len(prompts) < numWorkers {
		numWorkers = len(prompts)
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results <- c.generateImage(ctx, idx, prompts[idx])
			}
		}()
	}

	for i := range prompts {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]*models.Payload, len(prompts))
	var errs []error
	for result := range results {
		if result.Error != nil {
			c.logger.Printf("image %d/%d failed after %v: %v", result.Index+1, len(prompts), result.Duration, result.Error)
			errs = append(errs, result.Error)
			continue
		}
		p := result.Payload
		ordered[result.Index] = &p
	}

	images := make([]models.Payload, 0, len(prompts))
	for _, p := range ordered {
		if p != nil {
			images = append(images, *p)
		}
	}

	if len(images) == 0 {
		return nil, &models.GenerationError{Kind: models.KindImage, Err: fmt.Errorf("no images generated: %w", errors.Join(errs...))}
	}
	return images, nil
}

// generateImage issues a single image request
func (c *Client) generateImage(ctx context.Context, idx int, prompt string) imageResult {
	start := time.Now()
	result := imageResult{Index: idx}

	resp, err := c.generate(ctx, c.opts.ImageModel, &generateRequest{
		Contents: []content{textContent("user", prompt)},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			ImageConfig:        &imageConfig{AspectRatio: c.opts.AspectRatio},
		},
	})
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		return result
	}

	b := resp.firstBlob()
	if b == nil {
		result.Error = fmt.Errorf("no inline image data")
		return result
	}
	result.Payload = models.Payload{MIMEType: b.MIMEType, Data: b.Data}
	return result
}
