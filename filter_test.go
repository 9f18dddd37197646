package pdfjson

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ScriptRock/pdfjson/graph"
)

func filterDict(names ...string) *graph.Object {
	d := graph.NewDict()
	if len(names) == 1 {
		d.SetKey("Filter", graph.NewName(names[0]))
		return d
	}
	arr := graph.NewArray()
	for _, n := range names {
		arr.Append(graph.NewName(n))
	}
	d.SetKey("Filter", arr)
	return d
}

func Test_DecodeStream(t *testing.T) {
	// "hi" in a stored-block zlib stream.
	zlibHi := []byte{0x78, 0x9c, 0x01, 0x02, 0x00, 0xfd, 0xff, 'h', 'i', 0x01, 0x3b, 0x00, 0xd2}

	testCases := map[string]struct {
		dict   *graph.Object
		data   []byte
		want   []byte
		wantOK bool
	}{
		"flate": {
			dict:   filterDict("FlateDecode"),
			data:   zlibHi,
			want:   []byte("hi"),
			wantOK: true,
		},
		"flate via filter array": {
			dict:   filterDict("FlateDecode", "FlateDecode"),
			data:   zlibHi,
			wantOK: false, // double-encoded input is corrupt for the second stage
		},
		"ascii85": {
			dict:   filterDict("ASCII85Decode"),
			data:   []byte("BPI"),
			want:   []byte("hi"),
			wantOK: true,
		},
		"ascii85 with whitespace": {
			dict:   filterDict("ASCII85Decode"),
			data:   []byte("B\nP I"),
			want:   []byte("hi"),
			wantOK: true,
		},
		"no filter": {
			dict:   graph.NewDict(),
			data:   []byte("raw"),
			wantOK: false,
		},
		"unsupported filter": {
			dict:   filterDict("DCTDecode"),
			data:   []byte("raw"),
			wantOK: false,
		},
		"corrupt zlib": {
			dict:   filterDict("FlateDecode"),
			data:   []byte("not zlib"),
			wantOK: false,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, ok := decodeStream(tc.dict, tc.data)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("decoded payload mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_DecodeStream_DecodeParms(t *testing.T) {
	d := filterDict("FlateDecode")
	d.SetKey("DecodeParms", graph.NewDict())
	if _, ok := decodeStream(d, []byte{0x78, 0x9c}); ok {
		t.Error("decode succeeded despite unhandled DecodeParms")
	}
}
