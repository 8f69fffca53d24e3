package writer

import (
	"fmt"
	"strings"

	"autopilot/internal/config"
	"autopilot/internal/domain"
)

var inlineFrequencyText = map[string]string{
	"every_h2":       "after EVERY <h2> section",
	"every_other_h2": "after EVERY OTHER <h2> section (2nd, 4th, 6th and so on)",
	"every_third_h2": "after EVERY THIRD <h2> section (3rd, 6th, 9th and so on)",
}

// buildSystemPrompt assembles the persona, structural rules and JSON contract
// for article generation. style overrides the configured global style when an
// author-specific one exists.
func buildSystemPrompt(cfg config.WriterConfig, style string) string {
	if style == "" {
		style = cfg.Style
	}

	var b strings.Builder
	b.WriteString("You are a professional journalist and content writer. ")
	fmt.Fprintf(&b, "Always write in %s. ", cfg.Language)

	if cfg.SiteIdentity != "" {
		fmt.Fprintf(&b, "\n\nAbout the site you write for:\n%s\n\n", cfg.SiteIdentity)
	}
	if cfg.Niche != "" {
		fmt.Fprintf(&b, "You specialize in %s. ", cfg.Niche)
	}

	fmt.Fprintf(&b, "Your writing style is %s. ", style)
	fmt.Fprintf(&b, "The article must be between %d and %d words. ", cfg.MinWords, cfg.MaxWords)
	b.WriteString("Use HTML formatting (<h2>, <h3>, <p>, <strong>, <em>, <ul>, <li>) for the content. ")
	b.WriteString("Never use <h1>; the title is rendered as the top-level heading separately. ")
	b.WriteString("\n\nIMPORTANT article structure:")
	b.WriteString("\n- The article MUST open with an engaging intro paragraph in <p> tags. Do NOT start with an <h2> heading; the title is already the H1.")
	b.WriteString("\n- Use <h2> and <h3> further down to structure the content.")
	b.WriteString("\n- Return COMPACT HTML with no literal \\n between tags. Use only HTML tags for formatting, no newline characters.")

	if cfg.InlineImages.Enabled {
		freq, ok := inlineFrequencyText[cfg.InlineImages.Frequency]
		if !ok {
			freq = inlineFrequencyText["every_other_h2"]
		}
		b.WriteString("\n\nINLINE IMAGES:")
		fmt.Fprintf(&b, "\n- Place the markers [INLINE_IMAGE_1], [INLINE_IMAGE_2] and so on in the content %s.", freq)
		b.WriteString("\n- Each marker must stand alone between paragraphs, AFTER the relevant section.")
		b.WriteString("\n- In the JSON answer, include an extra field \"inline_images\": an array of objects:")
		b.WriteString("\n  [{\"marker\": \"[INLINE_IMAGE_1]\", \"prompt\": \"image description in English\", \"alt\": \"SEO alt text\", \"caption\": \"image caption\"}]")
	}

	b.WriteString("\n\nYou MUST answer with valid JSON with the following fields:\n")
	b.WriteString(`{"title": "article title", "content": "full article in compact HTML without \\n", "excerpt": "short summary of 1-2 sentences", "category_hint": "suggested category", "image_prompt": "image generation description in English, landscape format", "image_alt": "SEO-friendly alt text for the image", "image_caption": "short caption shown below the image"`)
	if cfg.InlineImages.Enabled {
		b.WriteString(`, "inline_images": [{"marker": "[INLINE_IMAGE_1]", "prompt": "...", "alt": "...", "caption": "..."}]`)
	}
	b.WriteString("}")

	return b.String()
}

// buildUserPrompt carries the source item and related-link suggestions.
func buildUserPrompt(cfg config.WriterConfig, item domain.FeedItem, related []domain.RelatedLink) string {
	var b strings.Builder
	b.WriteString("Write an original article based on the following news item:\n\n")
	fmt.Fprintf(&b, "Title: %s\n", item.Title)

	if item.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", item.Description)
	}
	if item.URL != "" && cfg.IncludeSourceLink {
		fmt.Fprintf(&b, "Source URL: %s\n", item.URL)
		b.WriteString("\nInclude a link to the source in the article.\n")
	}

	if len(related) > 0 {
		b.WriteString("\nRelated articles that should be linked in the text where natural:\n")
		for _, link := range related {
			fmt.Fprintf(&b, "- %q (%s)\n", link.Title, link.URL)
		}
	}

	b.WriteString("\nWrite a unique, engaging article. Do not copy directly from the source.")
	b.WriteString("\nAnswer ONLY with JSON as specified in the system prompt.")

	return b.String()
}
