package mode

// Mode identifies one of the supported boot-environment ecosystems.
type Mode int

const (
	// Select is the placeholder used before a source has been chosen.
	Select Mode = iota
	// CloudPE is the Cloud-PE plugin ecosystem (.ce plugins).
	CloudPE
	// HotPE is the HotPE module ecosystem (.HPM modules).
	HotPE
	// Edgeless is the Edgeless plugin ecosystem (.7z plugins).
	Edgeless
)

// All lists the active modes, excluding the Select placeholder.
var All = []Mode{CloudPE, HotPE, Edgeless}

func (m Mode) String() string {
	switch m {
	case CloudPE:
		return "cloudpe"
	case HotPE:
		return "hotpe"
	case Edgeless:
		return "edgeless"
	default:
		return "select"
	}
}

// Parse maps a mode name (as produced by String) back to a Mode.
// Unrecognized names yield Select.
func Parse(s string) Mode {
	switch s {
	case "cloudpe":
		return CloudPE
	case "hotpe":
		return HotPE
	case "edgeless":
		return Edgeless
	default:
		return Select
	}
}

// CatalogURL returns the remote plugin catalog endpoint for the mode.
func (m Mode) CatalogURL() string {
	switch m {
	case CloudPE:
		return "https://api.cloud-pe.cn/GetPlugins/"
	case HotPE:
		return "https://api.hotpe.top/API/HotPE/GetHPMList/"
	case Edgeless:
		return "https://api.cloud-pe.cn/EdgelessPlugins/"
	default:
		return ""
	}
}

// ConnectTestURL returns the endpoint used by the connectivity probe.
func (m Mode) ConnectTestURL() string {
	switch m {
	case CloudPE:
		return "https://api.cloud-pe.cn/connecttest/"
	case HotPE:
		return "https://api.hotpe.top/API/HotPE/GetHPMList/"
	case Edgeless:
		return "https://api.cloud-pe.cn/EdgelessPlugins/"
	default:
		return ""
	}
}

// PluginFolder returns the plugin directory name relative to the boot root.
func (m Mode) PluginFolder() string {
	switch m {
	case CloudPE:
		return "ce-apps"
	case HotPE:
		return "HotPEModule"
	case Edgeless:
		return `Edgeless\Resource`
	default:
		return ""
	}
}

// EnabledExtension returns the extension of an enabled plugin file,
// without the leading dot.
func (m Mode) EnabledExtension() string {
	switch m {
	case CloudPE:
		return "ce"
	case HotPE:
		return "HPM"
	case Edgeless:
		return "7z"
	default:
		return ""
	}
}

// DisabledExtension returns the suffix of a disabled plugin file, without
// the leading dot. For HotPE this is a compound suffix ("hpm.off"), not a
// plain extension.
func (m Mode) DisabledExtension() string {
	switch m {
	case CloudPE:
		return "CBK"
	case HotPE:
		return "hpm.off"
	case Edgeless:
		return "7zf"
	default:
		return ""
	}
}

// MarketName returns the display name of the market page.
func (m Mode) MarketName() string {
	if m == HotPE {
		return "Module Market"
	}
	return "Plugin Market"
}

// ManageName returns the display name of the manage page.
func (m Mode) ManageName() string {
	if m == HotPE {
		return "Module Manager"
	}
	return "Plugin Manager"
}

// Title returns the window title for the mode.
func (m Mode) Title() string {
	switch m {
	case CloudPE:
		return "Cloud-PE Plugin Market"
	case HotPE:
		return "HotPE Module Download"
	case Edgeless:
		return "Edgeless Plugin Download"
	default:
		return "Select Plugin Source"
	}
}

// ServerName returns the short name of the mode's upstream server.
func (m Mode) ServerName() string {
	switch m {
	case CloudPE:
		return "Cloud-PE"
	case HotPE:
		return "HotPE"
	case Edgeless:
		return "Edgeless"
	default:
		return ""
	}
}
