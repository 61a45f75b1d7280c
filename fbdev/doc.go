// Package fbdev implements a gfx.Backend on the Linux framebuffer
// device (/dev/fb0). It maps the panel memory with mmap, detects the
// pixel format from the driver's bitfield layout, and page-flips
// between two or three buffers with FBIOPAN_DISPLAY when the driver
// exposes enough virtual resolution. Vertical sync uses the
// FBIO_WAITFORVSYNC ioctl with a one-refresh sleep fallback for
// drivers that lack it.
//
// This is the zero-dependency path for embedded targets without a
// display server. The device code is Linux-only; the pure layout and
// blit helpers build everywhere.
package fbdev
