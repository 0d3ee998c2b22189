package host

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// DialogOptions carries the knobs a file dialog supports.
type DialogOptions struct {
	Title         string
	DefaultName   string
	AllowedTypes  []string
	AllowMultiple bool
}

// DialogResult is what a dialog produced. Cancelled covers both the user
// dismissing the dialog and the platform having no dialog tool at all;
// neither is a session error.
type DialogResult struct {
	Cancelled bool
	Paths     []string
}

// FileDialogs abstracts the native pick/save dialogs.
type FileDialogs interface {
	PickFiles(opts DialogOptions) (DialogResult, error)
	PickDirectory(opts DialogOptions) (DialogResult, error)
	Save(opts DialogOptions) (DialogResult, error)
}

// SystemDialogs shells out to the platform's dialog tool: osascript on
// darwin, zenity on linux, powershell on windows.
type SystemDialogs struct{}

func (SystemDialogs) PickFiles(opts DialogOptions) (DialogResult, error) {
	cmd, args := buildDialogCommand(runtime.GOOS, "pickFiles", opts)
	return runDialog(cmd, args, opts.AllowMultiple)
}

func (SystemDialogs) PickDirectory(opts DialogOptions) (DialogResult, error) {
	cmd, args := buildDialogCommand(runtime.GOOS, "pickDirectory", opts)
	return runDialog(cmd, args, false)
}

func (SystemDialogs) Save(opts DialogOptions) (DialogResult, error) {
	cmd, args := buildDialogCommand(runtime.GOOS, "save", opts)
	return runDialog(cmd, args, false)
}

func buildDialogCommand(goos, op string, opts DialogOptions) (string, []string) {
	title := opts.Title
	if title == "" {
		title = "Select"
	}
	switch goos {
	case "darwin":
		switch op {
		case "pickFiles":
			script := fmt.Sprintf(`POSIX path of (choose file with prompt %q`, title)
			if opts.AllowMultiple {
				script += " with multiple selections allowed"
			}
			script += ")"
			return "osascript", []string{"-e", script}
		case "pickDirectory":
			return "osascript", []string{"-e", fmt.Sprintf(`POSIX path of (choose folder with prompt %q)`, title)}
		case "save":
			script := fmt.Sprintf(`POSIX path of (choose file name with prompt %q`, title)
			if opts.DefaultName != "" {
				script += fmt.Sprintf(" default name %q", opts.DefaultName)
			}
			script += ")"
			return "osascript", []string{"-e", script}
		}
	case "linux":
		args := []string{"--file-selection", "--title=" + title}
		switch op {
		case "pickFiles":
			if opts.AllowMultiple {
				args = append(args, "--multiple", "--separator=\n")
			}
			if len(opts.AllowedTypes) > 0 {
				patterns := make([]string, len(opts.AllowedTypes))
				for i, ext := range opts.AllowedTypes {
					patterns[i] = "*." + strings.TrimPrefix(ext, ".")
				}
				args = append(args, "--file-filter="+strings.Join(patterns, " "))
			}
		case "pickDirectory":
			args = append(args, "--directory")
		case "save":
			args = append(args, "--save")
			if opts.DefaultName != "" {
				args = append(args, "--filename="+opts.DefaultName)
			}
		}
		return "zenity", args
	case "windows":
		switch op {
		case "pickDirectory":
			return "powershell", []string{
				"-NoProfile",
				"-Command",
				"Add-Type -AssemblyName System.Windows.Forms; $d=New-Object System.Windows.Forms.FolderBrowserDialog; if($d.ShowDialog() -eq 'OK'){Write-Output $d.SelectedPath}",
			}
		case "pickFiles":
			multi := "$false"
			if opts.AllowMultiple {
				multi = "$true"
			}
			return "powershell", []string{
				"-NoProfile",
				"-Command",
				fmt.Sprintf("Add-Type -AssemblyName System.Windows.Forms; $d=New-Object System.Windows.Forms.OpenFileDialog; $d.Multiselect=%s; if($d.ShowDialog() -eq 'OK'){$d.FileNames | ForEach-Object {Write-Output $_}}", multi),
			}
		case "save":
			return "powershell", []string{
				"-NoProfile",
				"-Command",
				"Add-Type -AssemblyName System.Windows.Forms; $d=New-Object System.Windows.Forms.SaveFileDialog; if($d.ShowDialog() -eq 'OK'){Write-Output $d.FileName}",
			}
		}
	}
	return "", nil
}

func runDialog(cmd string, args []string, multiple bool) (DialogResult, error) {
	if cmd == "" {
		return DialogResult{Cancelled: true}, nil
	}
	out, err := exec.Command(cmd, args...).Output()
	if err != nil {
		// Dialog tools exit non-zero on dismiss; treat it as a
		// cancellation rather than a failure.
		return DialogResult{Cancelled: true}, nil
	}
	text := strings.TrimSpace(string(out))
	if text == "" {
		return DialogResult{Cancelled: true}, nil
	}
	if !multiple {
		return DialogResult{Paths: []string{text}}, nil
	}
	return DialogResult{Paths: strings.Split(text, "\n")}, nil
}
