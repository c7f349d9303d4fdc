package styles

// DefaultTheme is a warm palette for the story box.
var DefaultTheme = Theme{
	Name: "default",
	Tokens: ThemeTokens{
		Background: "#14100C",
		Panel:      "#1F1812",
		Text:       "#F3E9DC",
		TextMuted:  "#A8957F",
		Border:     "#6B4F35",
		Accent:     "#F2A541",
		Focus:      "#FFD27F",
		Success:    "#7BC47F",
		Warning:    "#E0A030",
		Error:      "#E5534B",
		Fade:       "#3A2C20",
	},
}
