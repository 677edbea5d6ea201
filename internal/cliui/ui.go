// Package cliui renders the CLI's terminal output using pterm. Unlike
// the generator CLI this module started from, it has no interactive
// wizard surface: every command here is non-interactive (compile,
// batch, watch), so only pterm's static printers are used.
package cliui

import "github.com/pterm/pterm"

func PrintHeader(title, subtitle string) {
	pterm.DefaultHeader.WithFullWidth().Println(title)
	if subtitle != "" {
		pterm.DefaultBasicText.Println(subtitle)
	}
}

func PrintSuccess(format string, args ...interface{}) {
	pterm.Success.Printfln(format, args...)
}

func PrintError(format string, args ...interface{}) {
	pterm.Error.Printfln(format, args...)
}

func PrintWarning(format string, args ...interface{}) {
	pterm.Warning.Printfln(format, args...)
}

func PrintInfo(format string, args ...interface{}) {
	pterm.Info.Printfln(format, args...)
}

func PrintSection(title string) {
	pterm.DefaultSection.Println(title)
}

func PrintSQL(sql string, args []interface{}) {
	pterm.DefaultBox.WithTitle("SQL").Println(sql)
	if len(args) > 0 {
		rows := make([][]string, len(args))
		for i, a := range args {
			rows[i] = []string{itoa(i + 1), pterm.Sprintf("%v", a)}
		}
		pterm.DefaultTable.WithHasHeader().WithData(append([][]string{{"#", "value"}}, rows...)).Render()
	}
}

func Spinner(message string) *pterm.SpinnerPrinter {
	s, _ := pterm.DefaultSpinner.Start(message)
	return s
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var digits []byte
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
