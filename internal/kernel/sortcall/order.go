package sortcall

// SortDescending orders buf from largest to smallest in place.
//
// Position i always holds the running maximum of buf[i:]: the scan starts at
// i itself and every larger value found is swapped into i. The result is not
// stable and the pass never exits early.
func SortDescending(buf []int32) {
	n := len(buf)
	for i := 0; i < n; i++ {
		maxVal := buf[i]
		for j := i; j < n; j++ {
			if maxVal < buf[j] {
				maxVal = buf[j]
				buf[i], buf[j] = buf[j], buf[i]
			}
		}
	}
}

// IsDescending reports whether buf is in non-increasing order.
func IsDescending(buf []int32) bool {
	for i := 1; i < len(buf); i++ {
		if buf[i-1] < buf[i] {
			return false
		}
	}
	return true
}
