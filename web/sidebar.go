package web

const (
	// MobileMaxWidth is the widest viewport, in CSS pixels, where the sidebar overlays the page
	MobileMaxWidth = 1023
	// UnknownWidth is used when the browser doesn't report its viewport. It's treated as mobile.
	UnknownWidth = 0
)

type SidebarEvent string

const (
	SidebarEventToggle       SidebarEvent = "toggle"
	SidebarEventOutsideClick SidebarEvent = "outside-click"
	SidebarEventNavigate     SidebarEvent = "navigate"
)

type SidebarState int

const (
	SidebarClosed SidebarState = iota
	SidebarOpen
)

func (s SidebarState) String() string {
	switch s {
	case SidebarOpen:
		return "open"
	default:
		return "closed"
	}
}

// Sidebar is the collapsible navigation panel of the home page. Transitions return the next
// state and never mutate the receiver.
type Sidebar struct {
	State SidebarState
}

func NewSidebar(open bool) Sidebar {
	if open {
		return Sidebar{State: SidebarOpen}
	}
	return Sidebar{State: SidebarClosed}
}

func (s Sidebar) IsOpen() bool {
	return s.State == SidebarOpen
}

func (s Sidebar) Toggle() Sidebar {
	return NewSidebar(!s.IsOpen())
}

// OutsideClick closes the sidebar only where it overlays the page
func (s Sidebar) OutsideClick(width int) Sidebar {
	if s.IsOpen() && width <= MobileMaxWidth {
		return NewSidebar(false)
	}
	return s
}

// Resize closes the sidebar when the viewport grows past the mobile layout
func (s Sidebar) Resize(width int) Sidebar {
	if s.IsOpen() && width > MobileMaxWidth {
		return NewSidebar(false)
	}
	return s
}

func (s Sidebar) Navigate() Sidebar {
	return NewSidebar(false)
}

// ScrollLocked reports whether the page behind the sidebar must not scroll
func (s Sidebar) ScrollLocked(width int) bool {
	return s.IsOpen() && width <= MobileMaxWidth
}

// ToggleHref is the link of the menu button
func (s Sidebar) ToggleHref() string {
	return s.eventHref(SidebarEventToggle)
}

// OutsideClickHref is the link of the overlay behind the open sidebar
func (s Sidebar) OutsideClickHref() string {
	return s.eventHref(SidebarEventOutsideClick)
}

// NavigateHref is the link of a sidebar entry pointing to path
func (s Sidebar) NavigateHref(path string) string {
	return path + "?" + eventQueryParam + "=" + string(SidebarEventNavigate)
}

func (s Sidebar) eventHref(event SidebarEvent) string {
	return "/?" + menuQueryParam + "=" + s.State.String() + "&" + eventQueryParam + "=" + string(event)
}
