package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Invite image dimensions, sized for link previews
const (
	InviteWidth  = 1200
	InviteHeight = 630
)

var (
	inviteFrom   = color.RGBA{R: 0x66, G: 0x7e, B: 0xea, A: 0xff}
	inviteTo     = color.RGBA{R: 0x76, G: 0x4b, B: 0xa2, A: 0xff}
	inviteAccent = color.RGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff}
	inviteFaint  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x99}
)

// Uploader stores a rendered object and returns its public URL
type Uploader interface {
	PutObject(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// InviteInfo describes whose invite is rendered
type InviteInfo struct {
	UserID      string
	DisplayName string
	Message     string
	// Avatar is drawn in the profile circle when set
	Avatar image.Image
}

// InviteService renders invite preview images
type InviteService struct {
	uploader Uploader
	brand    string
}

// NewInviteService creates a new invite service
func NewInviteService(uploader Uploader, brand string) *InviteService {
	if brand == "" {
		brand = "Join me"
	}
	return &InviteService{uploader: uploader, brand: brand}
}

// Generate renders an invite image and uploads it, returning its URL
func (s *InviteService) Generate(ctx context.Context, info InviteInfo) (string, error) {
	if info.UserID == "" {
		return "", fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	data, err := s.Render(info)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("invite_previews/%s/%d_%s.png", info.UserID, time.Now().UnixMilli(), uuid.New().String())
	url, err := s.uploader.PutObject(ctx, key, "image/png", data)
	if err != nil {
		return "", fmt.Errorf("failed to upload invite image: %w", err)
	}

	log.Info().Str("user_id", info.UserID).Str("url", url).Msg("Invite image generated")
	return url, nil
}

// Render draws the invite image as PNG
func (s *InviteService) Render(info InviteInfo) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, InviteWidth, InviteHeight))
	drawGradient(img, inviteFrom, inviteTo)
	drawDecorations(img)

	cx, cy, radius := InviteWidth/2, 200, 60
	if info.Avatar != nil {
		drawAvatar(img, info.Avatar, cx, cy, radius)
	} else {
		fillCircle(img, cx, cy, radius, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x4c})
		drawCentered(img, initial(info.DisplayName), cy-24, 4, color.White)
	}

	name := strings.TrimSpace(info.DisplayName)
	if name == "" {
		name = "A friend"
	}
	message := info.Message
	if message == "" {
		message = name + " invited you!"
	}
	drawCentered(img, message, cy+100, 4, color.White)
	drawCentered(img, "Share moments with your friends", cy+180, 2, inviteFaint)
	drawCentered(img, s.brand, InviteHeight-110, 3, inviteAccent)
	drawCentered(img, "Tap to join", InviteHeight-55, 2, inviteFaint)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode invite image: %w", err)
	}
	return buf.Bytes(), nil
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	if name != "" && name[0] < utf8.RuneSelf {
		return strings.ToUpper(name[:1])
	}
	return "U"
}

// drawGradient fills img with a diagonal gradient
func drawGradient(img *image.RGBA, from, to color.RGBA) {
	b := img.Bounds()
	span := float64(b.Dx() + b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			t := float64(x+y) / span
			img.SetRGBA(x, y, color.RGBA{
				R: lerp(from.R, to.R, t),
				G: lerp(from.G, to.G, t),
				B: lerp(from.B, to.B, t),
				A: 0xff,
			})
		}
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

func drawDecorations(img *image.RGBA) {
	sparkle := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x99}
	points := []struct{ x, y, r int }{
		{100, 100, 8},
		{InviteWidth - 150, 120, 6},
		{80, InviteHeight - 150, 10},
		{InviteWidth - 100, InviteHeight - 180, 7},
		{InviteWidth - 200, 250, 5},
		{150, 300, 9},
	}
	for _, p := range points {
		fillCircle(img, p.x, p.y, p.r, sparkle)
	}
}

func fillCircle(img *image.RGBA, cx, cy, r int, c color.Color) {
	src := image.NewUniform(c)
	mask := &circle{p: image.Pt(cx, cy), r: r}
	draw.DrawMask(img, mask.Bounds(), src, image.Point{}, mask, mask.Bounds().Min, draw.Over)
}

// drawAvatar scales avatar into a circle centred on (cx, cy)
func drawAvatar(img *image.RGBA, avatar image.Image, cx, cy, r int) {
	size := 2 * r
	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), avatar, avatar.Bounds(), xdraw.Over, nil)

	mask := &circle{p: image.Pt(cx, cy), r: r}
	draw.DrawMask(img, mask.Bounds(), scaled, image.Point{}, mask, mask.Bounds().Min, draw.Over)
}

// drawCentered writes text horizontally centred at top y, scaled up from a
// bitmap face.
func drawCentered(img *image.RGBA, text string, y, scale int, c color.Color) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	if width == 0 {
		return
	}
	height := face.Metrics().Height.Ceil()

	small := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)

	maxScale := int(math.Max(1, float64(InviteWidth-100)/float64(width)))
	if scale > maxScale {
		scale = maxScale
	}
	w, h := width*scale, height*scale
	x := (img.Bounds().Dx() - w) / 2
	xdraw.NearestNeighbor.Scale(img, image.Rect(x, y, x+w, y+h), small, small.Bounds(), xdraw.Over, nil)
}

// circle is an alpha mask of a filled disc
type circle struct {
	p image.Point
	r int
}

func (c *circle) ColorModel() color.Model {
	return color.AlphaModel
}

func (c *circle) Bounds() image.Rectangle {
	return image.Rect(c.p.X-c.r, c.p.Y-c.r, c.p.X+c.r, c.p.Y+c.r)
}

func (c *circle) At(x, y int) color.Color {
	xx, yy, rr := float64(x-c.p.X)+0.5, float64(y-c.p.Y)+0.5, float64(c.r)
	if xx*xx+yy*yy < rr*rr {
		return color.Alpha{A: 255}
	}
	return color.Alpha{A: 0}
}
