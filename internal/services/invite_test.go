package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteService_Render(t *testing.T) {
	svc := NewInviteService(nil, "")

	data, err := svc.Render(InviteInfo{UserID: "u1", DisplayName: "Mina"})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, InviteWidth, InviteHeight), img.Bounds())
}

func TestInviteService_RenderWithAvatar(t *testing.T) {
	avatar := image.NewRGBA(image.Rect(0, 0, 64, 64))
	draw.Draw(avatar, avatar.Bounds(), image.NewUniform(color.RGBA{R: 0xff, A: 0xff}), image.Point{}, draw.Src)
	svc := NewInviteService(nil, "Brand")

	data, err := svc.Render(InviteInfo{
		UserID:  "u1",
		Message: "Come along",
		Avatar:  avatar,
	})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	r, g, b, _ := img.At(InviteWidth/2, 200).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestInviteService_Generate(t *testing.T) {
	uploader := &fakeUploader{}
	svc := NewInviteService(uploader, "")

	url, err := svc.Generate(context.Background(), InviteInfo{UserID: "u1", DisplayName: "Mina"})
	require.NoError(t, err)

	require.Len(t, uploader.keys, 1)
	key := uploader.keys[0]
	assert.True(t, strings.HasPrefix(key, "invite_previews/u1/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.Equal(t, "image/png", uploader.contentType)
	assert.Positive(t, uploader.size)
	assert.Equal(t, "https://media.example.com/"+key, url)
}

func TestInviteService_GenerateErrors(t *testing.T) {
	svc := NewInviteService(&fakeUploader{}, "")
	_, err := svc.Generate(context.Background(), InviteInfo{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	svc = NewInviteService(&fakeUploader{err: errBoom}, "")
	_, err = svc.Generate(context.Background(), InviteInfo{UserID: "u1"})
	assert.ErrorIs(t, err, errBoom)
}

func TestInitial(t *testing.T) {
	assert.Equal(t, "M", initial(" mina"))
	assert.Equal(t, "U", initial(""))
	assert.Equal(t, "U", initial("민아"))
}
