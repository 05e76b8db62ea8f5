package sshserver

import (
	"strconv"

	"pkt.systems/termfolio/schema"
)

type rgb struct {
	r int
	g int
	b int
}

type tuiTheme struct {
	Name        schema.ThemeName
	BarBG       rgb
	BarFG       rgb
	BarAccentFG rgb
	TextFG      rgb
	EchoFG      rgb
	ErrorFG     rgb
	HelpFG      rgb
	MetaFG      rgb
	PromptFG    rgb
	SpinnerFG   rgb
	BoldFG      rgb
	CodeFG      rgb
	LinkFG      rgb
	ChoiceFG    rgb
	ChoiceBG    rgb
	ChoiceHiFG  rgb
	ChoiceHiBG  rgb
}

const (
	ansiReset     = "\x1b[0m"
	ansiBold      = "\x1b[1m"
	ansiDim       = "\x1b[2m"
	ansiItalic    = "\x1b[3m"
	ansiUnderline = "\x1b[4m"
)

var tuiThemes = map[schema.ThemeName]tuiTheme{
	"outrun": {
		Name:        "outrun",
		BarBG:       rgb{r: 32, g: 8, b: 56},
		BarFG:       rgb{r: 240, g: 241, b: 255},
		BarAccentFG: rgb{r: 0, g: 229, b: 255},
		TextFG:      rgb{r: 240, g: 241, b: 255},
		EchoFG:      rgb{r: 255, g: 91, b: 189},
		ErrorFG:     rgb{r: 255, g: 107, b: 107},
		HelpFG:      rgb{r: 154, g: 182, b: 255},
		MetaFG:      rgb{r: 154, g: 163, b: 178},
		PromptFG:    rgb{r: 255, g: 255, b: 255},
		SpinnerFG:   rgb{r: 110, g: 136, b: 255},
		BoldFG:      rgb{r: 255, g: 91, b: 189},
		CodeFG:      rgb{r: 112, g: 214, b: 255},
		LinkFG:      rgb{r: 112, g: 214, b: 255},
		ChoiceFG:    rgb{r: 240, g: 241, b: 255},
		ChoiceBG:    rgb{r: 32, g: 8, b: 56},
		ChoiceHiFG:  rgb{r: 10, g: 13, b: 23},
		ChoiceHiBG:  rgb{r: 0, g: 229, b: 255},
	},
	"gruvbox": {
		Name:        "gruvbox",
		BarBG:       rgb{r: 60, g: 56, b: 54},
		BarFG:       rgb{r: 235, g: 219, b: 178},
		BarAccentFG: rgb{r: 250, g: 189, b: 47},
		TextFG:      rgb{r: 235, g: 219, b: 178},
		EchoFG:      rgb{r: 184, g: 187, b: 38},
		ErrorFG:     rgb{r: 251, g: 73, b: 52},
		HelpFG:      rgb{r: 131, g: 165, b: 152},
		MetaFG:      rgb{r: 146, g: 131, b: 116},
		PromptFG:    rgb{r: 255, g: 255, b: 255},
		SpinnerFG:   rgb{r: 131, g: 165, b: 152},
		BoldFG:      rgb{r: 214, g: 93, b: 14},
		CodeFG:      rgb{r: 250, g: 189, b: 47},
		LinkFG:      rgb{r: 250, g: 189, b: 47},
		ChoiceFG:    rgb{r: 235, g: 219, b: 178},
		ChoiceBG:    rgb{r: 60, g: 56, b: 54},
		ChoiceHiFG:  rgb{r: 40, g: 40, b: 40},
		ChoiceHiBG:  rgb{r: 250, g: 189, b: 47},
	},
	"tokyo-midnight": {
		Name:        "tokyo-midnight",
		BarBG:       rgb{r: 26, g: 27, b: 38},
		BarFG:       rgb{r: 192, g: 202, b: 245},
		BarAccentFG: rgb{r: 122, g: 162, b: 247},
		TextFG:      rgb{r: 192, g: 202, b: 245},
		EchoFG:      rgb{r: 187, g: 154, b: 247},
		ErrorFG:     rgb{r: 247, g: 118, b: 142},
		HelpFG:      rgb{r: 125, g: 207, b: 255},
		MetaFG:      rgb{r: 127, g: 133, b: 163},
		PromptFG:    rgb{r: 255, g: 255, b: 255},
		SpinnerFG:   rgb{r: 122, g: 162, b: 247},
		BoldFG:      rgb{r: 187, g: 154, b: 247},
		CodeFG:      rgb{r: 158, g: 206, b: 106},
		LinkFG:      rgb{r: 122, g: 162, b: 247},
		ChoiceFG:    rgb{r: 192, g: 202, b: 245},
		ChoiceBG:    rgb{r: 26, g: 27, b: 38},
		ChoiceHiFG:  rgb{r: 26, g: 27, b: 38},
		ChoiceHiBG:  rgb{r: 122, g: 162, b: 247},
	},
	schema.HackTheme: {
		Name:        schema.HackTheme,
		BarBG:       rgb{r: 0, g: 24, b: 0},
		BarFG:       rgb{r: 0, g: 255, b: 65},
		BarAccentFG: rgb{r: 255, g: 40, b: 40},
		TextFG:      rgb{r: 0, g: 255, b: 65},
		EchoFG:      rgb{r: 0, g: 143, b: 17},
		ErrorFG:     rgb{r: 255, g: 40, b: 40},
		HelpFG:      rgb{r: 0, g: 200, b: 50},
		MetaFG:      rgb{r: 0, g: 143, b: 17},
		PromptFG:    rgb{r: 0, g: 255, b: 65},
		SpinnerFG:   rgb{r: 255, g: 40, b: 40},
		BoldFG:      rgb{r: 180, g: 255, b: 180},
		CodeFG:      rgb{r: 0, g: 255, b: 65},
		LinkFG:      rgb{r: 0, g: 255, b: 65},
		ChoiceFG:    rgb{r: 0, g: 255, b: 65},
		ChoiceBG:    rgb{r: 0, g: 24, b: 0},
		ChoiceHiFG:  rgb{r: 0, g: 0, b: 0},
		ChoiceHiBG:  rgb{r: 0, g: 255, b: 65},
	},
}

func themeForName(name schema.ThemeName) tuiTheme {
	if name == "" {
		name = schema.DefaultTheme
	}
	if theme, ok := tuiThemes[name]; ok {
		return theme
	}
	return tuiThemes[schema.DefaultTheme]
}

func ansiFgRGB(c rgb) string {
	return "\x1b[38;2;" + strconv.Itoa(c.r) + ";" + strconv.Itoa(c.g) + ";" + strconv.Itoa(c.b) + "m"
}

func ansiBgRGB(c rgb) string {
	return "\x1b[48;2;" + strconv.Itoa(c.r) + ";" + strconv.Itoa(c.g) + ";" + strconv.Itoa(c.b) + "m"
}
