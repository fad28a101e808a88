package vanilla

// ChromeClass is a typed identifier for semantic chrome CSS classes.
type ChromeClass string

const (
	ClassForm       ChromeClass = "hk-form"
	ClassBreadcrumb ChromeClass = "hk-breadcrumb"
	ClassBody       ChromeClass = "hk-body"
	ClassActions    ChromeClass = "hk-actions"
	ClassErrors     ChromeClass = "hk-errors"
	ClassSave       ChromeClass = "hk-save"
)

// Save button animation classes. The button zooms in until the first accepted
// save and shakes while there are unsaved changes.
const (
	saveAnimated    = "animated"
	saveZoomIn      = "zoomIn"
	saveRubberBand  = "rubberBand"
	saveBusyClass   = "hk-save--busy"
	saveFailedClass = "hk-save--failed"
)

func defaultChromeClasses() map[ChromeClass]string {
	return map[ChromeClass]string{
		ClassForm:       string(ClassForm),
		ClassBreadcrumb: string(ClassBreadcrumb),
		ClassBody:       string(ClassBody),
		ClassActions:    string(ClassActions),
		ClassErrors:     string(ClassErrors),
		ClassSave:       string(ClassSave),
	}
}
