// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package storage

import (
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/nixomose/nixomosegotools/tools"
)

/* an image is what's in a simulated device, saved to a file so the next run of the cli sees what
   the last one programmed. it carries the geometry it was made with so you can't load a serial
   flash image onto an nvm layout by accident. */

type Image struct {
	Id       string                       `cbor:"1,keyasint"`
	Created  int64                        `cbor:"2,keyasint"`
	Geometry Geometry                     `cbor:"3,keyasint"`
	Pages    map[uint32]map[uint32][]byte `cbor:"4,keyasint"`
}

func New_image(geometry *Geometry) *Image {
	var ret Image
	ret.Id = uuid.New().String()
	ret.Created = time.Now().Unix()
	ret.Geometry = *geometry
	ret.Pages = make(map[uint32]map[uint32][]byte)
	return &ret
}

func image_enc_mode(log *tools.Nixomosetools_logger) (tools.Ret, cbor.EncMode) {
	// same contents, same bytes.
	var em, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return tools.Error(log, "unable to make cbor encoder: ", err), nil
	}
	return nil, em
}

func Save_image(log *tools.Nixomosetools_logger, filename string, image *Image) tools.Ret {
	var ret, em = image_enc_mode(log)
	if ret != nil {
		return ret
	}
	var data, err = em.Marshal(image)
	if err != nil {
		return tools.Error(log, "unable to encode image ", image.Id, " error: ", err)
	}
	if err = os.WriteFile(filename, data, 0644); err != nil {
		return tools.Error(log, "unable to write image file: ", filename, " error: ", err)
	}
	log.Debug("saved image ", image.Id, " to ", filename, ", ", len(data), " bytes")
	return nil
}

func Load_image(log *tools.Nixomosetools_logger, filename string) (tools.Ret, *Image) {
	var data, err = os.ReadFile(filename)
	if err != nil {
		return tools.Error(log, "unable to read image file: ", filename, " error: ", err), nil
	}
	return Decode_image(log, data)
}

func Decode_image(log *tools.Nixomosetools_logger, data []byte) (tools.Ret, *Image) {
	var image Image
	if err := cbor.Unmarshal(data, &image); err != nil {
		return tools.ErrorWithCode(log, ERR_BAD_IMAGE, "unable to decode image: ", err), nil
	}
	if _, err := uuid.Parse(image.Id); err != nil {
		return tools.ErrorWithCode(log, ERR_BAD_IMAGE, "image has a bad id: ", image.Id), nil
	}
	if ret := image.Geometry.Validate(log); ret != nil {
		return ret, nil
	}
	return nil, &image
}

/* Open_image makes a device with the image's geometry and puts the image's contents in it.
   force_non_blocking turns on the non blocking hal for this device only, the image keeps
   whatever it had. */
func Open_image(log *tools.Nixomosetools_logger, image *Image, force_non_blocking bool) (tools.Ret, *Device) {
	var geometry = image.Geometry
	geometry.Non_blocking = geometry.Non_blocking || force_non_blocking
	var ret, dev = Open_device(log, &geometry)
	if ret != nil {
		return ret, nil
	}
	ret = dev.Set_pages(image.Pages)
	if ret != nil {
		dev.Close()
		return ret, nil
	}
	return nil, dev
}

// Snapshot updates image with what's in the device right now, keeping its id and geometry.
func (this *Device) Snapshot(image *Image) {
	image.Pages = this.Get_pages()
}
