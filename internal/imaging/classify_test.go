package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

func TestIsImagePath(t *testing.T) {
	assert.True(t, IsImagePath("a/b/c.png"))
	assert.True(t, IsImagePath("a/b/c.PNG"))
	assert.True(t, IsImagePath("photo.JPG"))
	assert.True(t, IsImagePath("photo.jpeg"))
	assert.False(t, IsImagePath("readme.md"))
	assert.False(t, IsImagePath("archive.zip"))
	assert.False(t, IsImagePath("noext"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		path string
		want Classification
	}{
		{
			name: "dagm clean training image",
			path: "data/dagm_excerpt/Class1/Train/0001.PNG",
			want: Classification{Dataset: "dagm", Class: "Class1", Split: domain.SplitTrain},
		},
		{
			name: "dagm defect image",
			path: "data/dagm_excerpt/Class1/Test/0002.PNG",
			want: Classification{Dataset: "dagm", Class: "Class1", Split: domain.SplitTest},
		},
		{
			name: "dagm mask classifies as test via precedence",
			path: "data/dagm_excerpt/Class1/Test/Label/0002_label.PNG",
			want: Classification{Dataset: "dagm", Class: "Class1", Split: domain.SplitTest},
		},
		{
			name: "mvtec clean training image",
			path: "data/mvtec_excerpt/bottle/train/good/000.png",
			want: Classification{Dataset: "mvtec", Class: "bottle", Split: domain.SplitTrain},
		},
		{
			name: "mvtec defect image",
			path: "data/mvtec_excerpt/bottle/test/broken_small/001.png",
			want: Classification{Dataset: "mvtec", Class: "bottle", Split: domain.SplitTest},
		},
		{
			name: "mvtec ground truth mask",
			path: "data/mvtec_excerpt/bottle/ground_truth/broken_small/001_mask.png",
			want: Classification{Dataset: "mvtec", Class: "bottle", Split: domain.SplitGroundTruth},
		},
		{
			name: "unrelated path",
			path: "somewhere/else/image.png",
			want: Classification{Dataset: domain.DatasetUnknown, Class: domain.ClassUnknown, Split: domain.SplitUnknown},
		},
		{
			name: "windows separators",
			path: `data\dagm_excerpt\Class3\Train\0007.PNG`,
			want: Classification{Dataset: "dagm", Class: "Class3", Split: domain.SplitTrain},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path))
		})
	}
}
