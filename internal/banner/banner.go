package banner

import (
	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(lipgloss.Color("#04B575")).
		Bold(true)

	ascii := `
    ____                       ______
   / __ \_________  _  ____  _/_  __/_  ______  ___
  / /_/ / ___/ __ \| |/_/ / / // / / / / / __ \/ _ \
 / ____/ /  / /_/ />  </ /_/ // / / /_/ / / / /  __/
/_/   /_/   \____/_/|_|\__, //_/  \__,_/_/ /_/\___/
                      /____/                        `

	return "\n" + style.Render(ascii) + "\n"
}
