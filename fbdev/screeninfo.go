//go:build linux

package fbdev

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux fb ioctl request numbers, from <linux/fb.h>.
const (
	fbioGetVScreenInfo = 0x4600
	fbioGetFScreenInfo = 0x4602
	fbioPanDisplay     = 0x4606
	fbioWaitForVSync   = 0x40044620 // _IOW('F', 0x20, __u32)
)

type bitField struct {
	Offset   uint32
	Length   uint32
	MSBRight uint32
}

// varScreenInfo mirrors struct fb_var_screeninfo.
type varScreenInfo struct {
	XRes         uint32
	YRes         uint32
	XResVirtual  uint32
	YResVirtual  uint32
	XOffset      uint32
	YOffset      uint32
	BitsPerPixel uint32
	Grayscale    uint32
	Red          bitField
	Green        bitField
	Blue         bitField
	Transp       bitField
	NonStd       uint32
	Activate     uint32
	Height       uint32
	Width        uint32
	AccelFlags   uint32
	PixClock     uint32
	LeftMargin   uint32
	RightMargin  uint32
	UpperMargin  uint32
	LowerMargin  uint32
	HSyncLen     uint32
	VSyncLen     uint32
	Sync         uint32
	VMode        uint32
	Rotate       uint32
	Colorspace   uint32
	Reserved     [4]uint32
}

// fixScreenInfo mirrors struct fb_fix_screeninfo on 64-bit targets
// (unsigned long fields are 8 bytes with the paddings that implies).
type fixScreenInfo struct {
	ID           [16]byte
	SmemStart    uint64
	SmemLen      uint32
	Type         uint32
	TypeAux      uint32
	Visual       uint32
	XPanStep     uint16
	YPanStep     uint16
	YWrapStep    uint16
	_            [2]byte
	LineLength   uint32
	_            [4]byte
	MmioStart    uint64
	MmioLen      uint32
	Accel        uint32
	Capabilities uint16
	_            [2]uint16
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func getVarScreenInfo(fd int, v *varScreenInfo) error {
	return ioctl(fd, fbioGetVScreenInfo, unsafe.Pointer(v))
}

func getFixScreenInfo(fd int, f *fixScreenInfo) error {
	return ioctl(fd, fbioGetFScreenInfo, unsafe.Pointer(f))
}

func panDisplay(fd int, v *varScreenInfo) error {
	return ioctl(fd, fbioPanDisplay, unsafe.Pointer(v))
}

func waitForVSync(fd int) error {
	var arg uint32
	return ioctl(fd, fbioWaitForVSync, unsafe.Pointer(&arg))
}
