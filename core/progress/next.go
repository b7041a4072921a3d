package progress

import "github.com/trezcool/elimu/core/course"

// IsComplete reports whether every lecture of a non-empty curriculum has a viewed entry.
// Entries for lectures outside the curriculum are ignored.
func IsComplete(curriculum []course.Lecture, entries []LectureProgress) bool {
	if len(curriculum) == 0 {
		return false
	}
	viewed := viewedSet(entries)
	for _, lec := range curriculum {
		if _, ok := viewed[lec.ID]; !ok {
			return false
		}
	}
	return true
}

// NextLecture returns the curriculum index to resume at:
// 0 for a completed course or when nothing was viewed, otherwise the lecture following the last one viewed.
// When that lecture is past the end of the curriculum (or unknown), the first unviewed lecture is used.
func NextLecture(curriculum []course.Lecture, entries []LectureProgress, completed bool) int {
	if completed || len(curriculum) == 0 {
		return 0
	}

	last := -1
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Viewed {
			last = i
			break
		}
	}
	if last < 0 {
		return 0
	}

	for i, lec := range curriculum {
		if lec.ID == entries[last].LectureID && i+1 < len(curriculum) {
			return i + 1
		}
	}

	viewed := viewedSet(entries)
	for i, lec := range curriculum {
		if _, ok := viewed[lec.ID]; !ok {
			return i
		}
	}
	return 0
}

func viewedSet(entries []LectureProgress) map[string]struct{} {
	viewed := make(map[string]struct{}, len(entries))
	for _, lp := range entries {
		if lp.Viewed {
			viewed[lp.LectureID] = struct{}{}
		}
	}
	return viewed
}
