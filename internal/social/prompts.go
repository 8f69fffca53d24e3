package social

import "fmt"

func posterPromptAuthorLogo(title, excerpt, language string) string {
	return "Create a professional, scroll-stopping Facebook sharing poster for this news article.\n\n" +
		"The first reference image is a photo of the journalist/author — feature this person " +
		"prominently in a setting that relates to the article's core topic.\n\n" +
		"The second reference image is the site's logo — incorporate it creatively into the " +
		"poster design (e.g., corner placement, watermark style, or as part of the header).\n\n" +
		posterPromptCommon(title, excerpt, language)
}

func posterPromptLogoOnly(title, excerpt, language string) string {
	return "Create a professional, scroll-stopping Facebook sharing poster for this news article.\n\n" +
		"The reference image is the site's logo — incorporate it creatively into the poster design.\n\n" +
		posterPromptCommon(title, excerpt, language)
}

func posterPromptPlain(title, excerpt, language string) string {
	return "Create a professional, scroll-stopping Facebook sharing poster for this news article.\n\n" +
		posterPromptCommon(title, excerpt, language)
}

func posterPromptCommon(title, excerpt, language string) string {
	return fmt.Sprintf("Article title: %q\nSummary: %q\n\n", title, excerpt) +
		fmt.Sprintf("All text and headlines on the poster must be in %s.\n", language) +
		"Design should be bold, modern, and attention-grabbing for social media.\n" +
		"You have full creative freedom for layout, colors, and composition."
}
