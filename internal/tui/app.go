// Package tui is the read-only terminal browser for imsgd.
package tui

import (
	"context"
	"iter"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/imsg/internal/api"
	"github.com/matheus3301/imsg/internal/tui/keys"
	"github.com/matheus3301/imsg/internal/tui/model"
	"github.com/matheus3301/imsg/internal/tui/ui"
	"github.com/matheus3301/imsg/internal/tui/views"
	"github.com/rivo/tview"
)

const (
	pageConversations = "conversations"
	pageThread        = "thread"
	pageFilter        = "filter"

	refreshInterval = 5 * time.Second
	flashDuration   = 5 * time.Second
)

// Daemon is the part of *client.Client the TUI uses.
type Daemon interface {
	model.Backend
	Watch(ctx context.Context, conversationGUID string) (iter.Seq2[api.WatchEvent, error], error)
}

// App is the main TUI application shell.
type App struct {
	app       *tview.Application
	pages     *tview.Pages
	vm        *model.ViewModel
	daemon    Daemon
	keymap    *keys.Keymap
	statusBar *views.StatusBar
	convList  *views.ConversationList
	thread    *views.MessageThread
	filter    *tview.InputField
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(d Daemon, sessionName string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		vm:        model.NewViewModel(d),
		daemon:    d,
		keymap:    keys.NewKeymap(),
		statusBar: views.NewStatusBar(theme),
		convList:  views.NewConversationList(theme),
		thread:    views.NewMessageThread(theme),
		filter:    tview.NewInputField().SetLabel(" / ").SetFieldWidth(0),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.statusBar.SetSession(sessionName)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	a.statusBar.SetHints(a.keymap.Hints(pageConversations))

	return a
}

func (a *App) setupBindings() {
	a.keymap.Bind(keys.Global, keys.Binding{Key: tcell.KeyRune, Rune: 'q', Hint: "q:quit", Run: a.Stop})
	a.keymap.Bind(keys.Global, keys.Binding{Key: tcell.KeyRune, Rune: 'r', Hint: "r:refresh", Run: func() { go a.refresh() }})
	a.keymap.Bind(pageConversations, keys.Binding{Key: tcell.KeyRune, Rune: '/', Hint: "/:filter", Run: a.showFilter})
	a.keymap.Bind(pageThread, keys.Binding{Key: tcell.KeyEscape, Hint: "esc:back", Run: a.closeThread})
	a.keymap.Bind(pageThread, keys.Binding{Key: tcell.KeyRune, Rune: 'g', Hint: "g:top", Run: func() { a.thread.ScrollToBeginning() }})
	a.keymap.Bind(pageThread, keys.Binding{Key: tcell.KeyRune, Rune: 'G', Hint: "G:bottom", Run: func() { a.thread.ScrollToEnd() }})
}

func (a *App) setupCallbacks() {
	a.convList.SetSelectedFunc(func(row, col int) {
		if guid := a.convList.Selected(); guid != "" {
			a.openThread(guid)
		}
	})

	a.filter.SetChangedFunc(func(text string) {
		a.convList.SetFilter(text)
	})
	a.filter.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEscape {
			a.filter.SetText("")
			a.convList.SetFilter("")
		}
		a.pages.HidePage(pageFilter)
		a.app.SetFocus(a.convList)
	})
}

func (a *App) setupLayout() {
	filterBox := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(a.filter, 1, 0, true)

	a.pages.AddPage(pageConversations, a.convList, true, true)
	a.pages.AddPage(pageThread, a.thread, true, false)
	a.pages.AddPage(pageFilter, filterBox, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Let text input widgets handle all keys normally.
		if _, ok := a.app.GetFocus().(*tview.InputField); ok {
			return event
		}
		currentPage, _ := a.pages.GetFrontPage()
		if a.keymap.Dispatch(currentPage, event) {
			return nil
		}
		return event
	})
}

func (a *App) showFilter() {
	a.pages.ShowPage(pageFilter)
	a.app.SetFocus(a.filter)
}

func (a *App) openThread(guid string) {
	go func() {
		if err := a.vm.LoadMessages(a.ctx, guid); err != nil {
			a.vm.Flash.Warn("Load failed: "+err.Error(), flashDuration)
			a.app.QueueUpdateDraw(a.drawFlash)
			return
		}
		conv, _ := a.vm.Conversation(guid)
		a.app.QueueUpdateDraw(func() {
			a.thread.SetConversation(conv)
			a.thread.Update(a.vm.Messages())
			a.pages.SwitchToPage(pageThread)
			a.statusBar.SetHints(a.keymap.Hints(pageThread))
			a.app.SetFocus(a.thread)
		})
	}()
}

func (a *App) closeThread() {
	a.vm.Close()
	a.pages.SwitchToPage(pageConversations)
	a.statusBar.SetHints(a.keymap.Hints(pageConversations))
	a.convList.Update(a.vm.Conversations())
	a.app.SetFocus(a.convList)
}

// Run starts the TUI application.
func (a *App) Run() error {
	go func() {
		a.refresh()
		go a.watch()
		a.refreshLoop()
	}()
	return a.app.Run()
}

func (a *App) refresh() {
	if err := a.vm.LoadStatus(a.ctx); err != nil {
		a.vm.Flash.Warn("Status failed: "+err.Error(), flashDuration)
	}
	if err := a.vm.LoadConversations(a.ctx); err != nil {
		a.vm.Flash.Warn("Load failed: "+err.Error(), flashDuration)
	}
	a.app.QueueUpdateDraw(func() {
		if page, _ := a.pages.GetFrontPage(); page != pageThread {
			a.convList.Update(a.vm.Conversations())
		}
		if st := a.vm.Status(); st != nil {
			a.statusBar.SetState(st.State)
		}
		a.drawFlash()
	})
}

func (a *App) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.refresh()
		case <-a.ctx.Done():
			return
		}
	}
}

// watch applies streamed messages, reconnecting after stream errors.
func (a *App) watch() {
	for a.ctx.Err() == nil {
		events, err := a.daemon.Watch(a.ctx, "")
		if err == nil {
			for evt, err := range events {
				if err != nil {
					a.vm.Flash.Warn("Watch interrupted: "+err.Error(), flashDuration)
					break
				}
				a.apply(evt)
			}
		}
		select {
		case <-time.After(refreshInterval):
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) apply(evt api.WatchEvent) {
	inThread := a.vm.Apply(evt.Message)
	if !inThread {
		name := evt.Message.ConversationGUID
		if conv, ok := a.vm.Conversation(name); ok {
			name = views.Title(conv)
		}
		a.vm.Flash.Info("New message in "+name, flashDuration)
	}
	a.app.QueueUpdateDraw(func() {
		if inThread {
			a.thread.Update(a.vm.Messages())
		} else if page, _ := a.pages.GetFrontPage(); page == pageConversations {
			a.convList.Update(a.vm.Conversations())
		}
		a.drawFlash()
	})
}

func (a *App) drawFlash() {
	a.statusBar.SetFlash(a.vm.Flash.Get())
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
