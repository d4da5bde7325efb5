// Package notes produces the short advisory introduction attached to an
// order's observations, via the Gemini generateContent endpoint. The
// call is purely cosmetic: it never fails the caller and never touches
// totals or stock.
package notes

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	// FallbackPlain is returned when no generation was attempted (no API
	// key configured) or the service answered with empty text.
	FallbackPlain = "Prezado cliente, segue abaixo o detalhamento do pedido solicitado."
	// FallbackError is returned when a generation attempt failed.
	FallbackError = "Prezado cliente, segue abaixo o detalhamento do pedido solicitado conforme conversamos."
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

type Generator struct {
	client *resty.Client
	apiKey string
	model  string
	log    *logrus.Logger
}

func NewGenerator(apiKey string, model string, log *logrus.Logger) *Generator {
	if model == "" {
		model = "gemini-3-flash-preview"
	}
	return &Generator{
		client: resty.New().SetBaseURL(defaultBaseURL),
		apiKey: apiKey,
		model:  model,
		log:    log,
	}
}

// SetBaseURL points the generator at a different endpoint. Used in tests.
func (g *Generator) SetBaseURL(url string) {
	g.client.SetBaseURL(url)
}

// Model returns the model name the generator calls.
func (g *Generator) Model() string {
	return g.model
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Intro asks for a short professional Portuguese introduction for the
// order. It always returns usable text: one of the two fixed fallback
// sentences replaces the generated copy when the service is disabled,
// errors out, or answers empty.
func (g *Generator) Intro(ctx context.Context, clientName string, itemsCount int) string {
	if g.apiKey == "" {
		return FallbackPlain
	}

	prompt := fmt.Sprintf(
		"Escreva uma breve introdução profissional e elegante de no máximo 3 frases para um pedido enviado ao cliente %s. O pedido contém %d itens. Use um tom cordial e focado em qualidade de serviço.",
		clientName, itemsCount,
	)

	var out generateResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}).
		SetResult(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.model))
	if err != nil {
		g.log.WithField("module", "notes").WithError(err).Warn("intro generation failed")
		return FallbackError
	}
	if resp.IsError() {
		g.log.WithField("module", "notes").WithField("status", resp.StatusCode()).Warn("intro generation rejected")
		return FallbackError
	}

	text := firstText(out)
	if text == "" {
		return FallbackPlain
	}
	return text
}

func firstText(out generateResponse) string {
	for _, cand := range out.Candidates {
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}
