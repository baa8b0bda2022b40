// Package storybrowser lets the player pick a story file interactively when
// none was given on the command line: it scrapes the if-archive z-code index,
// presents the list and downloads the chosen story into a local cache.
package storybrowser

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const indexURL = "https://www.ifarchive.org/indexes/if-archive/games/zcode/"
const archiveRoot = "https://www.ifarchive.org"

var docStyle = lipgloss.NewStyle().Margin(1, 2)

type browserState int

const (
	loadingStoryList browserState = iota
	choosingStory
	downloadingStory
)

type story struct {
	name string
	url  string
}

func (s story) Title() string       { return s.name }
func (s story) Description() string { return s.url }
func (s story) FilterValue() string { return s.name }

type storiesLoadedMsg []list.Item
type downloadDoneMsg string
type browserErrMsg struct{ err error }

type browserModel struct {
	state     browserState
	storyList list.Model
	spinner   spinner.Model
	cacheDir  string
	selected  string
	err       error
}

// Select runs the browser and returns the local path of the chosen story, or
// "" if the player backed out.
func Select() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = "."
	}
	cacheDir = filepath.Join(cacheDir, "zvm", "stories")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("can't create story cache %s: %w", cacheDir, err)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	storyList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	storyList.Title = "if-archive z-code stories"

	model := browserModel{
		state:     loadingStoryList,
		storyList: storyList,
		spinner:   sp,
		cacheDir:  cacheDir,
	}

	finalModel, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return "", err
	}

	m := finalModel.(browserModel)
	return m.selected, m.err
}

func (m browserModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchStoryList)
}

// fetchStoryList scrapes the archive index for story file links.
func fetchStoryList() tea.Msg {
	client := &http.Client{Timeout: 30 * time.Second}
	res, err := client.Get(indexURL)
	if err != nil {
		return browserErrMsg{err}
	}
	defer res.Body.Close() // nolint:errcheck

	if res.StatusCode != http.StatusOK {
		return browserErrMsg{fmt.Errorf("bad status code fetching index: %d", res.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return browserErrMsg{err}
	}

	var items []list.Item
	doc.Find("a").Each(func(_ int, selection *goquery.Selection) {
		href, ok := selection.Attr("href")
		if !ok {
			return
		}
		if !isStoryFile(href) {
			return
		}

		url := href
		if strings.HasPrefix(url, "/") {
			url = archiveRoot + url
		}
		items = append(items, story{
			name: filepath.Base(strings.TrimSuffix(href, "/")),
			url:  url,
		})
	})

	if len(items) == 0 {
		return browserErrMsg{fmt.Errorf("no story files found at %s", indexURL)}
	}

	return storiesLoadedMsg(items)
}

func isStoryFile(href string) bool {
	for _, ext := range []string{".z1", ".z2", ".z3", ".z4", ".z5", ".z8"} {
		if strings.HasSuffix(strings.ToLower(href), ext) {
			return true
		}
	}
	return false
}

func (m browserModel) download(s story) tea.Cmd {
	return func() tea.Msg {
		target := filepath.Join(m.cacheDir, s.name)
		if _, err := os.Stat(target); err == nil {
			return downloadDoneMsg(target) // Already cached
		}

		client := &http.Client{Timeout: 60 * time.Second}
		res, err := client.Get(s.url)
		if err != nil {
			return browserErrMsg{err}
		}
		defer res.Body.Close() // nolint:errcheck

		if res.StatusCode != http.StatusOK {
			return browserErrMsg{fmt.Errorf("bad status code downloading %s: %d", s.name, res.StatusCode)}
		}

		data, err := io.ReadAll(res.Body)
		if err != nil {
			return browserErrMsg{err}
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return browserErrMsg{err}
		}

		return downloadDoneMsg(target)
	}
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.storyList.FilterState() != list.Filtering {
				return m, tea.Quit
			}
		case "enter":
			if m.state == choosingStory {
				if s, ok := m.storyList.SelectedItem().(story); ok {
					m.state = downloadingStory
					return m, tea.Batch(m.spinner.Tick, m.download(s))
				}
			}
		}

	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.storyList.SetSize(msg.Width-h, msg.Height-v)

	case storiesLoadedMsg:
		m.state = choosingStory
		return m, m.storyList.SetItems(msg)

	case downloadDoneMsg:
		m.selected = string(msg)
		return m, tea.Quit

	case browserErrMsg:
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.storyList, cmd = m.storyList.Update(msg)
	return m, cmd
}

func (m browserModel) View() string {
	switch m.state {
	case loadingStoryList:
		return docStyle.Render(fmt.Sprintf("%s Fetching story list from the if-archive...", m.spinner.View()))
	case downloadingStory:
		return docStyle.Render(fmt.Sprintf("%s Downloading...", m.spinner.View()))
	default:
		return docStyle.Render(m.storyList.View())
	}
}
