package provisioning_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mockmodelstore "github.com/KirkDiggler/bot-stage/internal/clients/modelstore/mock"
	"github.com/KirkDiggler/bot-stage/internal/domain/embodiment"
	apperr "github.com/KirkDiggler/bot-stage/internal/errors"
	"github.com/KirkDiggler/bot-stage/internal/services/provisioning"
)

// a centimetre-scale rig scaled down by its armature, as exported from
// most DCC tools
const riggedGLTF = `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [
    {"name": "Armature", "children": [1, 2], "scale": [0.01, 0.01, 0.01]},
    {"name": "Hips", "translation": [0, 100, 0]},
    {"name": "Body", "mesh": 0, "skin": 0}
  ],
  "meshes": [
    {"name": "Body", "primitives": [{"attributes": {"POSITION": 0}, "material": 0}]}
  ],
  "materials": [
    {
      "name": "Chrome",
      "pbrMetallicRoughness": {"metallicFactor": 1.0, "roughnessFactor": 0.05},
      "emissiveFactor": [2.0, 0.5, 0.0],
      "extensions": {"KHR_materials_emissive_strength": {"emissiveStrength": 5.0}}
    }
  ],
  "skins": [{"joints": [1], "skeleton": 1}],
  "accessors": [
    {"componentType": 5126, "count": 3, "type": "VEC3", "min": [-20, 0, -10], "max": [20, 180, 10]},
    {"componentType": 5126, "count": 2, "type": "SCALAR", "min": [0], "max": [1.5]},
    {"componentType": 5126, "count": 2, "type": "SCALAR", "min": [0], "max": [0.8]},
    {"componentType": 5126, "count": 2, "type": "VEC4"}
  ],
  "animations": [
    {
      "name": "Armature|Idle_Breathing",
      "channels": [{"sampler": 0, "target": {"node": 1, "path": "rotation"}}],
      "samplers": [{"input": 1, "output": 3}]
    },
    {
      "name": "Armature|Punch_Right",
      "channels": [{"sampler": 0, "target": {"node": 1, "path": "rotation"}}],
      "samplers": [{"input": 2, "output": 3}]
    },
    {
      "name": "Armature|Salsa",
      "channels": [{"sampler": 0, "target": {"node": 1, "path": "rotation"}}],
      "samplers": [{"input": 1, "output": 3}]
    }
  ]
}`

// a static prop placed with a matrix and no scene list
const matrixGLTF = `{
  "asset": {"version": "2.0"},
  "nodes": [
    {"name": "Prop", "mesh": 0, "matrix": [2,0,0,0, 0,2,0,0, 0,0,2,0, 1,2,3,1]}
  ],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
  "accessors": [
    {"componentType": 5126, "count": 3, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 1]}
  ]
}`

func TestDecode_RiggedModel(t *testing.T) {
	tmpl, err := provisioning.Decode("rig.gltf", []byte(riggedGLTF), nil)
	require.NoError(t, err)

	assert.True(t, tmpl.Skinned)
	assert.InDelta(t, 1.8, tmpl.ReferenceHeight, 1e-6)

	require.Len(t, tmpl.SourceClips, 3)
	assert.Equal(t, "Armature|Idle_Breathing", tmpl.SourceClips[0].SourceName)

	require.Contains(t, tmpl.Clips, embodiment.ClipIdle)
	assert.Equal(t, "Armature|Idle_Breathing", tmpl.Clips[embodiment.ClipIdle].SourceName)
	assert.InDelta(t, 1.5, tmpl.Clips[embodiment.ClipIdle].Duration, 1e-6)

	require.Contains(t, tmpl.Clips, embodiment.ClipPunch)
	assert.InDelta(t, 0.8, tmpl.Clips[embodiment.ClipPunch].Duration, 1e-6)

	// nothing in the table claims salsa; it stays playable under its own name
	assert.Equal(t, []string{"Armature|Salsa"}, tmpl.Inference.Unmatched)
	assert.Contains(t, tmpl.Clips, "Armature|Salsa")

	var body *embodiment.Node
	for _, n := range tmpl.Root.Children[0].Children {
		if n.Name == "Body" {
			body = n
		}
	}
	require.NotNil(t, body)
	require.NotNil(t, body.Skin)
	require.Len(t, body.Skin.Joints, 1)
	assert.Equal(t, "Hips", body.Skin.Joints[0].Name)
	assert.Same(t, body.Skin.Joints[0], body.Skin.Skeleton)

	require.NotNil(t, body.Mesh)
	require.Len(t, body.Mesh.Materials, 1)
	mat := body.Mesh.Materials[0]
	assert.Equal(t, embodiment.MaxMetalness, mat.Metalness)
	assert.Equal(t, embodiment.MinRoughness, mat.Roughness)
	assert.Equal(t, 1.0, mat.Emissive.X())
	assert.Equal(t, 0.5, mat.Emissive.Y())
	assert.Equal(t, embodiment.MaxEmissiveStrength, mat.EmissiveStrength)
}

func TestDecode_InstantiateKeepsSkinBindings(t *testing.T) {
	tmpl, err := provisioning.Decode("rig.gltf", []byte(riggedGLTF), nil)
	require.NoError(t, err)

	inst, err := embodiment.Instantiate(tmpl, embodiment.KindCustom, 1.7, embodiment.DefaultBounds())
	require.NoError(t, err)
	assert.InDelta(t, 1.7, inst.Height, 1e-6)

	findSkin := func(root *embodiment.Node) *embodiment.Skin {
		var skin *embodiment.Skin
		var visit func(n *embodiment.Node)
		visit = func(n *embodiment.Node) {
			if n.Skin != nil {
				skin = n.Skin
			}
			for _, c := range n.Children {
				visit(c)
			}
		}
		visit(root)
		return skin
	}

	templateJoint := findSkin(tmpl.Root).Joints[0]
	cloneJoint := findSkin(inst.Root).Joints[0]
	assert.NotSame(t, templateJoint, cloneJoint)
	assert.Equal(t, "Hips", cloneJoint.Name)
}

func TestDecode_MatrixNodeWithoutScenes(t *testing.T) {
	tmpl, err := provisioning.Decode("prop.gltf", []byte(matrixGLTF), nil)
	require.NoError(t, err)

	require.Len(t, tmpl.Root.Children, 1)
	prop := tmpl.Root.Children[0]
	assert.InDelta(t, 2, prop.Scale.Y(), 1e-9)
	assert.InDelta(t, 3, prop.Translation.Z(), 1e-9)
	assert.InDelta(t, 2, tmpl.ReferenceHeight, 1e-9)

	assert.False(t, tmpl.Skinned)
	assert.Empty(t, tmpl.Clips)
}

func TestDecode_KeywordOverride(t *testing.T) {
	table := []embodiment.ClipKeyword{
		{ID: embodiment.ClipDance, Keywords: []string{"salsa"}},
		{ID: embodiment.ClipIdle, Keywords: []string{"idle"}},
	}

	tmpl, err := provisioning.Decode("rig.gltf", []byte(riggedGLTF), table)
	require.NoError(t, err)

	require.Contains(t, tmpl.Clips, embodiment.ClipDance)
	assert.Equal(t, "Armature|Salsa", tmpl.Clips[embodiment.ClipDance].SourceName)
	assert.NotContains(t, tmpl.Clips, embodiment.ClipPunch)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := provisioning.Decode("bad.glb", []byte("not a model"), nil)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeLoadFailed))
}

func TestGLTFLoader_Load(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mockmodelstore.NewMockClient(ctrl)

	loader := provisioning.NewGLTFLoader(&provisioning.GLTFLoaderConfig{Client: client})

	client.EXPECT().Fetch(gomock.Any(), "https://cdn/rig.glb").Return([]byte(riggedGLTF), nil)
	tmpl, err := loader.Load(context.Background(), "https://cdn/rig.glb")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/rig.glb", tmpl.Source)

	client.EXPECT().Fetch(gomock.Any(), "https://cdn/missing.glb").
		Return(nil, apperr.NotFoundf("nope"))
	_, err = loader.Load(context.Background(), "https://cdn/missing.glb")
	assert.True(t, apperr.IsNotFound(err))
}
