package app

const (
	menuH    = 1
	statusH  = 1
	minBodyH = 8
	minSideW = 34
	legendH  = 1
)

type layout struct {
	radarW, sideW int
	bodyH         int
	infoH, listH  int

	// radar drawing surface in cells
	radarCols, radarRows int
}

func computeLayout(width, height int) layout {
	var l layout
	l.bodyH = max(height-menuH-statusH, minBodyH)

	l.radarW = width * 3 / 5
	l.sideW = width - l.radarW
	if l.sideW < minSideW {
		l.sideW = minSideW
		l.radarW = width - l.sideW
	}

	l.infoH = max(l.bodyH*3/5, 6)
	l.listH = l.bodyH - l.infoH

	l.radarCols = l.radarW - 2
	l.radarRows = l.bodyH - 2 - legendH
	return l
}

// listRows is how many list rows fit in the side panel below its header.
func (l layout) listRows() int {
	return max(l.listH-4, 1)
}
