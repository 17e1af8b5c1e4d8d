package detector

// arabicKeyboardLayout mirrors the standard three-row Arabic key arrangement.
// Typo simulation replaces a character with one of its four orthogonal
// neighbors on this grid.
var arabicKeyboardLayout = [][]rune{
	{'ض', 'ص', 'ث', 'ق', 'ف', 'غ', 'ع', 'ه', 'خ', 'ح', 'ج'},
	{'ش', 'س', 'ي', 'ب', 'ل', 'ا', 'ت', 'ن', 'م', 'ك', 'ط'},
	{'ذ', 'ئ', 'ء', 'ؤ', 'ر', 'ى', 'ة', 'و', 'ز', 'ظ', 'د'},
}

func findKeyCoordinates(char rune) (row int, col int, ok bool) {
	for r, keys := range arabicKeyboardLayout {
		for c, key := range keys {
			if key == char {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// nearbyKeys returns the orthogonally adjacent keys for a character, or nil
// when the character has no position on the layout.
func nearbyKeys(char rune) []rune {
	row, col, ok := findKeyCoordinates(char)
	if !ok {
		return nil
	}

	directions := [][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	neighbors := make([]rune, 0, 4)
	for _, d := range directions {
		nr := row + d[0]
		nc := col + d[1]
		if nr < 0 || nr >= len(arabicKeyboardLayout) {
			continue
		}
		if nc < 0 || nc >= len(arabicKeyboardLayout[nr]) {
			continue
		}
		neighbors = append(neighbors, arabicKeyboardLayout[nr][nc])
	}
	return neighbors
}
